package sentiment

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Lexicon maps lowercase words/phrases and emoticons to weights in [-1, 1].
// It is immutable once built and safe for concurrent reads; engines share it
// by pointer.
type Lexicon struct {
	words     map[string]float64
	emoticons map[string]float64
	// entries is the merged table in a fixed order so scoring sums are reproducible.
	entries []entry
}

type entry struct {
	key    string
	weight float64
}

// ErrWeightOutOfRange is returned for lexicon weights outside [-1, 1].
var ErrWeightOutOfRange = errors.New("lexicon weight out of range [-1, 1]")

// NewLexicon validates and freezes the given tables. Keys are lowercased;
// an emoticon entry overrides a word entry with the same key.
func NewLexicon(words, emoticons map[string]float64) (*Lexicon, error) {
	l := &Lexicon{
		words:     make(map[string]float64, len(words)),
		emoticons: make(map[string]float64, len(emoticons)),
	}
	merged := make(map[string]float64, len(words)+len(emoticons))
	add := func(dst map[string]float64, k string, w float64) error {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			return fmt.Errorf("lexicon: empty key")
		}
		if math.IsNaN(w) || w < -1 || w > 1 {
			return fmt.Errorf("%w: %q=%v", ErrWeightOutOfRange, k, w)
		}
		dst[key] = w
		merged[key] = w
		return nil
	}
	for k, w := range words {
		if err := add(l.words, k, w); err != nil {
			return nil, err
		}
	}
	for k, w := range emoticons {
		if err := add(l.emoticons, k, w); err != nil {
			return nil, err
		}
	}
	l.entries = make([]entry, 0, len(merged))
	for k, w := range merged {
		l.entries = append(l.entries, entry{key: k, weight: w})
	}
	sort.Slice(l.entries, func(i, j int) bool { return l.entries[i].key < l.entries[j].key })
	return l, nil
}

// Len returns the number of distinct keys.
func (l *Lexicon) Len() int { return len(l.entries) }

// Weight looks up a single key.
func (l *Lexicon) Weight(key string) (float64, bool) {
	key = strings.ToLower(key)
	if w, ok := l.emoticons[key]; ok {
		return w, true
	}
	w, ok := l.words[key]
	return w, ok
}

type lexiconFile struct {
	Words     map[string]float64 `yaml:"words"`
	Emoticons map[string]float64 `yaml:"emoticons"`
}

// LoadLexiconFile reads a YAML lexicon with top-level "words" and "emoticons"
// maps. It is meant to be called once at startup.
func LoadLexiconFile(path string) (*Lexicon, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: operator-provided lexicon path
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var f lexiconFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if len(f.Words)+len(f.Emoticons) == 0 {
		return nil, fmt.Errorf("parse lexicon: %s has no entries", path)
	}
	return NewLexicon(f.Words, f.Emoticons)
}

// DefaultLexicon returns the built-in chat lexicon, built on first use.
var DefaultLexicon = sync.OnceValue(func() *Lexicon {
	l, err := NewLexicon(defaultWords, defaultEmoticons)
	if err != nil {
		panic(err)
	}
	return l
})

var defaultWords = map[string]float64{
	// positive
	"최고":    0.9,
	"대박":    0.8,
	"미쳤다":   0.7,
	"개쩐다":   0.8,
	"쩐다":    0.7,
	"레전드":   0.9,
	"갓":     0.6,
	"좋아":    0.6,
	"좋다":    0.6,
	"사랑":    0.8,
	"감사":    0.6,
	"고마워":   0.6,
	"축하":    0.7,
	"잘한다":   0.6,
	"잘했":    0.6,
	"멋지":    0.7,
	"멋있":    0.7,
	"귀엽":    0.6,
	"재밌":    0.6,
	"웃기":    0.5,
	"행복":    0.8,
	"기대":    0.4,
	"힘내":    0.3,
	"나이스":   0.6,
	"굿":     0.5,
	"천재":    0.7,
	"ㄱㅇㄷ":   0.7,
	"gg":    0.3,
	"nice":  0.6,
	"good":  0.5,
	"great": 0.7,
	"love":  0.8,
	"pog":   0.8,
	"lol":   0.4,
	"wow":   0.5,
	// negative
	"노잼":     -0.6,
	"별로":     -0.4,
	"싫어":     -0.6,
	"싫다":     -0.6,
	"최악":     -0.9,
	"망했":     -0.7,
	"망함":     -0.7,
	"슬프":     -0.7,
	"슬퍼":     -0.7,
	"아쉽":     -0.4,
	"아깝":     -0.4,
	"화나":     -0.7,
	"짜증":     -0.7,
	"실망":     -0.6,
	"답답":     -0.5,
	"지루":     -0.5,
	"무섭":     -0.3,
	"불쌍":     -0.4,
	"에휴":     -0.4,
	"bad":    -0.5,
	"sad":    -0.6,
	"boring": -0.5,
	"worst":  -0.9,
	"cringe": -0.5,
}

var defaultEmoticons = map[string]float64{
	"ㅋㅋ": 0.5,
	"ㅎㅎ": 0.4,
	"ㄷㄷ": 0.2,
	"^^": 0.5,
	":)": 0.5,
	":d": 0.6,
	"<3": 0.7,
	"ㅠㅠ": -0.5,
	"ㅜㅜ": -0.5,
	"ㅡㅡ": -0.4,
	":(": -0.5,
	";;": -0.2,
	"ㅗ":  -0.8,
}
