package blog

import (
	"testing"

	"github.com/digitalindian/service-site-api/internal/notify"
)

// the dispatcher and poller consume posts through the service
var _ notify.PostSource = (*Service)(nil)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":             "hello-world",
		"  Spaced   Out  ":        "spaced-out",
		"Already-Slugged":         "already-slugged",
		"Under_scores and-dashes": "under-scores-and-dashes",
		"Punctuation!?":           "punctuation",
		"数字123":                   "数字123",
		"---":                     "",
		"":                        "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
