package chat

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = "\ufeff" +
	"재생시간,닉네임,메시지,기타\n" +
	"00:00:05,user1,{:wow:}안녕,x\n" +
	"00:00:59,[SYSTEM],[3개월 구독] 123 축하,\n" +
	"00:01:00,user2,\"ㅋㅋ, 대박\",\n" +
	"bad,user3,  ,\n" +
	"00:02:05,user1\n"

func TestLoad(t *testing.T) {
	tr, err := Load(strings.NewReader(sampleCSV), DefaultColumns())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tr.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", tr.Len())
	}
	wantSeconds := []int{5, 59, 60, 0, 125}
	for i, s := range tr.Seconds() {
		if s != wantSeconds[i] {
			t.Errorf("Seconds()[%d] = %d, want %d", i, s, wantSeconds[i])
		}
	}
	wantClean := []string{"안녕", "축하", "ㅋㅋ, 대박", "", ""}
	for i, c := range tr.CleanMessages() {
		if c != wantClean[i] {
			t.Errorf("CleanMessages()[%d] = %q, want %q", i, c, wantClean[i])
		}
	}
	if got := tr.Events()[2].Sender; got != "user2" {
		t.Errorf("sender = %q, want user2", got)
	}
}

func TestLoadMissingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("재생시간,메시지\n00:00:01,hi\n"), DefaultColumns())
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "닉네임") {
		t.Errorf("error should name the column: %v", err)
	}
}

func TestLoadEmptyInput(t *testing.T) {
	if _, err := Load(strings.NewReader(""), DefaultColumns()); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestLoadCustomColumns(t *testing.T) {
	cols := Columns{Timecode: "time", Sender: "user", Message: "text"}
	tr, err := Load(strings.NewReader("text,time,user\nhello,00:10:00,a\n"), cols)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tr.Seconds()[0] != 600 || tr.CleanMessages()[0] != "hello" {
		t.Errorf("unexpected row: %+v", tr.Events()[0])
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	tr, err := LoadFile(path, DefaultColumns())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if tr.Len() != 5 {
		t.Errorf("Len() = %d, want 5", tr.Len())
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultColumns()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDerivedColumnsMemoized(t *testing.T) {
	tr := NewTranscript([]Event{{Timecode: "00:00:01", Message: "{:a:}x"}})
	a, b := tr.Seconds(), tr.Seconds()
	if &a[0] != &b[0] {
		t.Error("Seconds() recomputed on second call")
	}
	c, d := tr.CleanMessages(), tr.CleanMessages()
	if &c[0] != &d[0] {
		t.Error("CleanMessages() recomputed on second call")
	}
}

func TestConcatenatedText(t *testing.T) {
	tr, err := Load(strings.NewReader(sampleCSV), DefaultColumns())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := tr.ConcatenatedText(SystemSender), "안녕 ㅋㅋ, 대박"; got != want {
		t.Errorf("ConcatenatedText = %q, want %q", got, want)
	}
	if got, want := tr.ConcatenatedText(""), "안녕 축하 ㅋㅋ, 대박"; got != want {
		t.Errorf("ConcatenatedText(\"\") = %q, want %q", got, want)
	}
}

func TestNilTranscriptLen(t *testing.T) {
	var tr *Transcript
	if tr.Len() != 0 {
		t.Error("nil transcript should have zero length")
	}
}
