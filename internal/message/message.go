package message

import (
	"reflect"
	"strings"
)

// Message is an ordered sequence of Segments. Segment order is rendering
// order and is preserved through transcoding. Treat a Message as immutable:
// Append returns a new Message and never mutates the receiver's backing
// array in a way visible to other holders.
type Message []Segment

// New builds a Message from the given segments.
func New(segs ...Segment) Message {
	m := make(Message, len(segs))
	copy(m, segs)
	return m
}

// FromText builds a single-segment text Message.
func FromText(s string) Message {
	return Message{Text{Content: s}}
}

// Append returns a new Message with the given segments appended. The
// receiver is left unchanged.
func (m Message) Append(segs ...Segment) Message {
	out := make(Message, 0, len(m)+len(segs))
	out = append(out, m...)
	out = append(out, segs...)
	return out
}

// Prepend returns a new Message with the given segments at the front.
func (m Message) Prepend(segs ...Segment) Message {
	out := make(Message, 0, len(m)+len(segs))
	out = append(out, segs...)
	out = append(out, m...)
	return out
}

// PlainText concatenates the content of all text segments.
func (m Message) PlainText() string {
	var b strings.Builder
	for _, seg := range m {
		if t, ok := seg.(Text); ok {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// ImageURLs returns the URLs of all remote image segments, in order.
func (m Message) ImageURLs() []string {
	var urls []string
	for _, seg := range m {
		if img, ok := seg.(Image); ok {
			urls = append(urls, img.URL)
		}
	}
	return urls
}

// Has reports whether the message contains at least one segment of the
// given kind.
func (m Message) Has(k Kind) bool {
	for _, seg := range m {
		if seg.Kind() == k {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the message carries no segments.
func (m Message) IsEmpty() bool {
	return len(m) == 0
}

// Equal reports structural equality of two messages: same length, same
// segment kinds and payloads in the same order. ForwardNode contents are
// compared recursively.
func (m Message) Equal(other Message) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if !segmentEqual(m[i], other[i]) {
			return false
		}
	}
	return true
}

func segmentEqual(a, b Segment) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if an, ok := a.(ForwardNode); ok {
		bn := b.(ForwardNode)
		return an.UserID == bn.UserID && an.Nickname == bn.Nickname &&
			an.Content.Equal(bn.Content)
	}
	return reflect.DeepEqual(a, b)
}
