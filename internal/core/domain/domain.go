package domain

import "strings"

// RawFragment is one message as delivered by the chat transport.
// Text is empty when the message carries no text; GroupID is 0 outside albums.
type RawFragment struct {
	ID       int64
	Text     string
	GroupID  int64
	HasMedia bool
}

// FragmentMeta carries the sender and markup features the ad heuristic reads.
// Zero values mean the feature is absent.
type FragmentMeta struct {
	SenderUsername string
	SenderIsBot    bool
	ViaBot         bool
	ButtonURLs     []string
	HasMedia       bool
}

// Fragment pairs a raw fragment with its metadata.
type Fragment struct {
	RawFragment
	Meta FragmentMeta
}

// LogicalPost is a user-visible post reconstructed from one or more fragments.
type LogicalPost struct {
	// MemberIDs are ascending and never empty.
	MemberIDs []int64
	// Text is the caption; empty when no member has non-blank text.
	Text string
	// GroupID is set only for albums.
	GroupID int64
	// CaptionSourceID is the member the caption came from; 0 when Text is empty.
	CaptionSourceID int64
	HasMedia        bool
}

// HasText reports whether the post is textful.
func (p LogicalPost) HasText() bool {
	return strings.TrimSpace(p.Text) != ""
}

// FirstID returns the smallest member id.
func (p LogicalPost) FirstID() int64 {
	if len(p.MemberIDs) == 0 {
		return 0
	}

	return p.MemberIDs[0]
}

// CaptionIndex returns the position of CaptionSourceID within MemberIDs, or -1.
func (p LogicalPost) CaptionIndex() int {
	for i, id := range p.MemberIDs {
		if id == p.CaptionSourceID {
			return i
		}
	}

	return -1
}

// ScoreResult is the judge outcome for one logical post.
type ScoreResult struct {
	// Score is normalized to [0, 1].
	Score float64
	// Post references an element of the scored slice; it is not a copy.
	Post   *LogicalPost
	Reason string
}
