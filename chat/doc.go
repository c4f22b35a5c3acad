// Package chat holds the chat transcript model and everything that produces it.
//
// It provides:
//   - Event and Transcript: the ordered rows of a chat replay export, with the
//     derived per-row columns (offset seconds, cleaned text) computed once per
//     Transcript and reused by every analysis run against it.
//   - Clean: strips platform markup (emote tags, donation and subscription
//     announcements) from raw message text.
//   - Load / LoadFile: read a transcript CSV export with configurable column
//     names.
//   - Recorder: connects to Twitch IRC and writes live chat as a transcript
//     CSV whose timecodes are relative to the moment recording started, so the
//     file can be analyzed later like any other export.
package chat
