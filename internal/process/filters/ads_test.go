package filters

import (
	"testing"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
)

func TestAdScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "plain text", text: "Hello world, nothing to see here", want: 0},
		{name: "empty", text: "", want: 0},
		{name: "english cliche", text: "Big sale today only for our readers", want: 5},
		{name: "word containing cliche", text: "wholesale prices discussed in the article", want: 0},
		{name: "russian cliche", text: "Огромные скидки на всё в нашем магазине", want: 5},
		{name: "vietnamese cliche", text: "Khuyến mãi lớn cho mọi khách hàng thân thiết", want: 5},
		{name: "hashtags", text: "Notes about #golang and #rust but not a#tag", want: 4},
		{name: "mentions", text: "Thanks to @alice and @bob for the long review", want: 2},
		{name: "percents", text: "Prices went up by 50% and then 20 % again", want: 4},
		{name: "phone", text: "Call the office at +7 999 123-45-67 any day", want: 1},
		{name: "phone glued to digit after plus", text: "Ref 1+23456789012 in the registry entry", want: 1},
		{
			name: "many links in short text",
			text: "Read more here https://a.com then https://b.com and https://c.com later",
			want: 13,
		},
		{name: "short text with a link", text: "Look https://x.io", want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdScore(tt.text); got != tt.want {
				t.Errorf("AdScore(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestAdDetector_Classify(t *testing.T) {
	adText := "Sale! https://a.io https://b.io"

	tests := []struct {
		name       string
		cfg        AdConfig
		fragment   domain.Fragment
		wantAd     bool
		wantReason string
	}{
		{
			name:     "empty fragment",
			fragment: domain.Fragment{},
			wantAd:   false,
		},
		{
			name:       "deny listed sender",
			cfg:        AdConfig{DenySenders: []string{"@Spam_Shop"}},
			fragment:   fragment(1, "perfectly normal text", domain.FragmentMeta{SenderUsername: "spam_shop"}),
			wantAd:     true,
			wantReason: ReasonDenied,
		},
		{
			name:     "allow listed sender skips scoring",
			cfg:      AdConfig{AllowSenders: []string{"Trusted"}},
			fragment: fragment(2, adText, domain.FragmentMeta{SenderUsername: "trusted", ViaBot: true}),
			wantAd:   false,
		},
		{
			name:       "deny wins over allow",
			cfg:        AdConfig{AllowSenders: []string{"both"}, DenySenders: []string{"both"}},
			fragment:   fragment(3, "hello", domain.FragmentMeta{SenderUsername: "both"}),
			wantAd:     true,
			wantReason: ReasonDenied,
		},
		{
			name:       "bot flag",
			fragment:   fragment(4, "hello", domain.FragmentMeta{SenderIsBot: true}),
			wantAd:     true,
			wantReason: ReasonBotSender,
		},
		{
			name:       "bot username suffix",
			fragment:   fragment(5, "hello", domain.FragmentMeta{SenderUsername: "NewsBot"}),
			wantAd:     true,
			wantReason: ReasonBotSender,
		},
		{
			name:       "posted via bot",
			fragment:   fragment(6, "hello", domain.FragmentMeta{ViaBot: true}),
			wantAd:     true,
			wantReason: ReasonViaBot,
		},
		{
			name:       "url button",
			fragment:   fragment(7, "hello", domain.FragmentMeta{ButtonURLs: []string{"https://shop.example"}}),
			wantAd:     true,
			wantReason: ReasonURLButton,
		},
		{
			name:     "non web button",
			fragment: fragment(8, "hello", domain.FragmentMeta{ButtonURLs: []string{"tg://user?id=1"}}),
			wantAd:   false,
		},
		{
			name:       "media with short linked text",
			fragment:   domain.Fragment{RawFragment: domain.RawFragment{ID: 9, Text: "Buy https://x.io", HasMedia: true}},
			wantAd:     true,
			wantReason: ReasonMediaLink,
		},
		{
			name:     "same text without media stays below threshold",
			fragment: fragment(10, "Buy https://x.io", domain.FragmentMeta{}),
			wantAd:   false,
		},
		{
			name:       "score over threshold",
			fragment:   fragment(11, adText, domain.FragmentMeta{}),
			wantAd:     true,
			wantReason: ReasonScore,
		},
		{
			name:     "custom threshold",
			cfg:      AdConfig{Threshold: 20},
			fragment: fragment(12, adText, domain.FragmentMeta{}),
			wantAd:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewAdDetector(tt.cfg, nil)

			gotAd, gotReason := d.Classify(tt.fragment)
			if gotAd != tt.wantAd || gotReason != tt.wantReason {
				t.Errorf("Classify() = (%v, %q), want (%v, %q)", gotAd, gotReason, tt.wantAd, tt.wantReason)
			}

			if d.IsAdvertisement(tt.fragment) != tt.wantAd {
				t.Errorf("IsAdvertisement() disagrees with Classify()")
			}
		})
	}
}

func fragment(id int64, text string, meta domain.FragmentMeta) domain.Fragment {
	return domain.Fragment{
		RawFragment: domain.RawFragment{ID: id, Text: text},
		Meta:        meta,
	}
}
