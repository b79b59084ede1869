// Package message defines the platform-agnostic message model used across
// chatbridge.
//
// A Message is an ordered sequence of Segments. Each Segment kind carries its
// own strongly-typed payload; platform transcoders convert between this model
// and each platform's native representation. Segment kinds a platform cannot
// express degrade to the nearest equivalent when building the native message;
// native kinds the model does not know are preserved under Other when
// extracting, so nothing is silently dropped at the universal layer.
package message

// Kind identifies the payload schema of a Segment.
type Kind string

const (
	KindText        Kind = "text"
	KindMention     Kind = "mention"
	KindMentionAll  Kind = "mention_all"
	KindEmoji       Kind = "emoji"
	KindImage       Kind = "image"
	KindImageFile   Kind = "image_file"
	KindAudio       Kind = "audio"
	KindVideo       Kind = "video"
	KindVoice       Kind = "voice"
	KindFile        Kind = "file"
	KindReply       Kind = "reply"
	KindForward     Kind = "forward"
	KindForwardNode Kind = "forward_node"
	KindJSONCard    Kind = "json_card"
	KindXMLCard     Kind = "xml_card"
	KindOther       Kind = "other"
)

// Segment is one atomic unit of a Message. The set of implementations is
// closed; the unexported method prevents foreign types from satisfying it.
type Segment interface {
	Kind() Kind
	segment()
}

// Text is a plain text run.
type Text struct {
	Content string
}

// Mention mentions a single user by platform id.
type Mention struct {
	UserID string
	// Display is the fallback text shown on platforms that render mentions
	// inline (e.g. "@alice"). Optional.
	Display string
}

// MentionAll mentions every member of the target scope.
type MentionAll struct{}

// Emoji is a platform sticker/face referenced by id, with an optional
// human-readable name used when degrading to text.
type Emoji struct {
	ID   string
	Name string
}

// Image references a remotely hosted image by URL.
type Image struct {
	URL string
}

// ImageFile references a local image file by path.
type ImageFile struct {
	Path string
}

// Audio references an audio attachment by URL or path.
type Audio struct {
	Source string
}

// Video references a video attachment by URL or path.
type Video struct {
	Source string
}

// Voice references a voice note by URL or path.
type Voice struct {
	Source string
}

// File references a generic file attachment.
type File struct {
	Source string
	Name   string
}

// Reply marks the message as a reply to another message by platform
// message id.
type Reply struct {
	MessageID string
}

// Forward references an existing forward bundle by platform id.
type Forward struct {
	ID string
}

// ForwardNode is one custom node of a batched forward message: a nested
// message attributed to a (possibly fake) sender.
type ForwardNode struct {
	UserID   string
	Nickname string
	Content  Message
}

// JSONCard is a platform JSON card payload.
type JSONCard struct {
	Data string
}

// XMLCard is a platform XML card payload.
type XMLCard struct {
	Data string
}

// Other preserves a native segment kind the universal model does not know.
// Type is the platform's own kind tag; Data is the raw payload. Transcoding
// out to another platform may drop it, but the universal layer keeps it
// intact.
type Other struct {
	Type string
	Data map[string]any
}

func (Text) Kind() Kind        { return KindText }
func (Mention) Kind() Kind     { return KindMention }
func (MentionAll) Kind() Kind  { return KindMentionAll }
func (Emoji) Kind() Kind       { return KindEmoji }
func (Image) Kind() Kind       { return KindImage }
func (ImageFile) Kind() Kind   { return KindImageFile }
func (Audio) Kind() Kind       { return KindAudio }
func (Video) Kind() Kind       { return KindVideo }
func (Voice) Kind() Kind       { return KindVoice }
func (File) Kind() Kind        { return KindFile }
func (Reply) Kind() Kind       { return KindReply }
func (Forward) Kind() Kind     { return KindForward }
func (ForwardNode) Kind() Kind { return KindForwardNode }
func (JSONCard) Kind() Kind    { return KindJSONCard }
func (XMLCard) Kind() Kind     { return KindXMLCard }
func (Other) Kind() Kind       { return KindOther }

func (Text) segment()        {}
func (Mention) segment()     {}
func (MentionAll) segment()  {}
func (Emoji) segment()       {}
func (Image) segment()       {}
func (ImageFile) segment()   {}
func (Audio) segment()       {}
func (Video) segment()       {}
func (Voice) segment()       {}
func (File) segment()        {}
func (Reply) segment()       {}
func (Forward) segment()     {}
func (ForwardNode) segment() {}
func (JSONCard) segment()    {}
func (XMLCard) segment()     {}
func (Other) segment()       {}
