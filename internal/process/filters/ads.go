// Package filters implements the advertisement heuristic applied to fetched
// fragments before they are grouped into logical posts.
//
// A fragment is an advertisement when, in order of precedence:
//   - its sender is on the deny list (allow list short-circuits to "not an ad")
//   - it was sent by a bot or posted through a bot relay
//   - it carries an inline button pointing to a URL
//   - it is a media post with a link and almost no text
//   - its weighted text score reaches the configured threshold
package filters

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/observability"
)

const (
	DefaultThreshold = 7

	ReasonDenied      = "ads_deny_sender"
	ReasonBotSender   = "ads_bot_sender"
	ReasonViaBot      = "ads_via_bot"
	ReasonURLButton   = "ads_url_button"
	ReasonMediaLink   = "ads_media_link"
	ReasonScore       = "ads_score"
	shortMediaTextLen = 60
)

// Score weights.
const (
	weightURL          = 3
	weightHashtag      = 2
	weightMention      = 1
	weightPercent      = 2
	weightPhone        = 1
	bonusInvite        = 6
	bonusManyURLs      = 4
	bonusPhrase        = 5
	bonusShortWithURL  = 3
	manyURLsCount      = 3
	manyURLsMaxLen     = 500
	shortWithURLMaxLen = 40
)

// Go's \w, \d and \b are ASCII-only; the classes below spell out the Unicode
// equivalents so Cyrillic and Vietnamese text is handled.
const (
	wordClass  = `[\p{L}\p{N}_]`
	digitClass = `\p{Nd}`
	edgeLeft   = `(?:^|[^\p{L}\p{N}_])`
	edgeRight  = `(?:$|[^\p{L}\p{N}_])`
)

var (
	inviteLinkRe = regexp.MustCompile(`(?i)(t\.me/(joinchat/|\+)|chat\.whatsapp\.com/|discord\.gg/|zalo\.me/g/)`)
	urlRe        = regexp.MustCompile(`(?i)(https?://|t\.me/|bit\.ly/|goo\.gl/|tinyurl\.com/)`)
	hashtagRe    = regexp.MustCompile(`#` + wordClass + `+`)
	mentionRe    = regexp.MustCompile(`@` + wordClass + `+`)
	phoneRe      = regexp.MustCompile(`\+?` + digitClass + `[` + `\p{Nd}\-\s\p{Zs}` + `]{8,}` + digitClass)
	phoneTailRe  = regexp.MustCompile(`^` + digitClass + `[` + `\p{Nd}\-\s\p{Zs}` + `]{8,}` + digitClass + `$`)
	percentRe    = regexp.MustCompile(digitClass + `{1,3}\s?%`)

	adPhrases = []string{
		`скидк` + wordClass + `+|распродаж` + wordClass + `+|промо` + wordClass + `*код|купить\s+сейчас|успей(?:\s+купить)?|подписывайтесь|реклама`,
		`sale|discount|limited\s+time|subscribe|sponsored|promo\s?code`,
		`khuyến\s?mãi|giảm\s?giá|ưu\s?đãi|mã\s?giảm\s?giá|quảng\s?cáo`,
	}
	adPhraseRe = regexp.MustCompile(`(?i)` + edgeLeft + `(?:` + strings.Join(adPhrases, "|") + `)` + edgeRight)
)

// AdConfig configures AdDetector.
type AdConfig struct {
	Threshold    int
	AllowSenders []string
	DenySenders  []string
}

// AdDetector classifies fragments as advertisements.
type AdDetector struct {
	threshold int
	allow     map[string]struct{}
	deny      map[string]struct{}
	logger    *zerolog.Logger
}

// NewAdDetector creates a detector. A non-positive threshold uses DefaultThreshold.
func NewAdDetector(cfg AdConfig, logger *zerolog.Logger) *AdDetector {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	d := &AdDetector{
		threshold: threshold,
		logger:    logger,
	}

	d.allow = d.senderSet(cfg.AllowSenders)
	d.deny = d.senderSet(cfg.DenySenders)

	return d
}

func (d *AdDetector) senderSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))

	for _, name := range names {
		if key := d.normalizeSender(name); key != "" {
			set[key] = struct{}{}
		}
	}

	return set
}

// normalizeSender folds case with a fresh Caser; Casers are not safe for concurrent use.
func (d *AdDetector) normalizeSender(name string) string {
	return cases.Fold().String(strings.TrimPrefix(strings.TrimSpace(name), "@"))
}

// IsAdvertisement reports whether the fragment should be dropped.
func (d *AdDetector) IsAdvertisement(f domain.Fragment) bool {
	ad, _ := d.Classify(f)
	return ad
}

// Classify returns the decision together with the reason code of the rule that fired.
func (d *AdDetector) Classify(f domain.Fragment) (bool, string) {
	sender := d.normalizeSender(f.Meta.SenderUsername)

	if sender != "" {
		if _, ok := d.deny[sender]; ok {
			return d.decide(f, ReasonDenied)
		}

		if _, ok := d.allow[sender]; ok {
			d.logger.Debug().Int64("message_id", f.ID).Str("sender", sender).Msg("sender is allow-listed, skipping ad check")
			return false, ""
		}
	}

	if f.Meta.SenderIsBot || strings.HasSuffix(sender, "bot") {
		return d.decide(f, ReasonBotSender)
	}

	if f.Meta.ViaBot {
		return d.decide(f, ReasonViaBot)
	}

	if hasURLButton(f.Meta.ButtonURLs) {
		return d.decide(f, ReasonURLButton)
	}

	hasMedia := f.HasMedia || f.Meta.HasMedia
	if hasMedia && urlRe.MatchString(f.Text) && utf8.RuneCountInString(f.Text) < shortMediaTextLen {
		return d.decide(f, ReasonMediaLink)
	}

	score := AdScore(f.Text)

	d.logger.Debug().
		Int64("message_id", f.ID).
		Int("score", score).
		Int("threshold", d.threshold).
		Msg("ad score computed")

	if score >= d.threshold {
		return d.decide(f, ReasonScore)
	}

	return false, ""
}

func (d *AdDetector) decide(f domain.Fragment, reason string) (bool, string) {
	d.logger.Debug().Int64("message_id", f.ID).Str("reason", reason).Msg("fragment marked as advertisement")
	observability.AdsFiltered.WithLabelValues(reason).Inc()

	return true, reason
}

func hasURLButton(urls []string) bool {
	for _, u := range urls {
		if u != "" && urlRe.MatchString(u) {
			return true
		}
	}

	return false
}

// AdScore computes the weighted advertisement score of a text.
func AdScore(text string) int {
	urls := len(urlRe.FindAllStringIndex(text, -1))
	length := utf8.RuneCountInString(text)

	score := urls*weightURL +
		countHashtags(text)*weightHashtag +
		len(mentionRe.FindAllStringIndex(text, -1))*weightMention +
		len(percentRe.FindAllStringIndex(text, -1))*weightPercent +
		countPhones(text)*weightPhone

	if inviteLinkRe.MatchString(text) {
		score += bonusInvite
	}

	if urls >= manyURLsCount && length < manyURLsMaxLen {
		score += bonusManyURLs
	}

	if adPhraseRe.MatchString(text) {
		score += bonusPhrase
	}

	if urls >= 1 && utf8.RuneCountInString(strings.TrimSpace(text)) < shortWithURLMaxLen {
		score += bonusShortWithURL
	}

	return score
}

// countHashtags counts #tags that do not continue a word, e.g. "a#b" is not a tag.
func countHashtags(text string) int {
	n := 0

	for _, loc := range hashtagRe.FindAllStringIndex(text, -1) {
		if !isWordRune(lastRuneBefore(text, loc[0])) {
			n++
		}
	}

	return n
}

// countPhones counts digit runs of at least ten characters that are not glued to other digits.
func countPhones(text string) int {
	n := 0

	for _, loc := range phoneRe.FindAllStringIndex(text, -1) {
		if !unicode.IsDigit(lastRuneBefore(text, loc[0])) {
			n++
			continue
		}

		// "1+234..." : the plus sign cannot start a phone after a digit, the rest still may.
		if text[loc[0]] == '+' && phoneTailRe.MatchString(text[loc[0]+1:loc[1]]) {
			n++
		}
	}

	return n
}

func lastRuneBefore(text string, idx int) rune {
	if idx <= 0 {
		return utf8.RuneError
	}

	r, _ := utf8.DecodeLastRuneInString(text[:idx])

	return r
}

func isWordRune(r rune) bool {
	if r == utf8.RuneError {
		return false
	}

	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
