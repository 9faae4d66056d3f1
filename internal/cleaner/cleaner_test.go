package cleaner

import (
	"math/rand"
	"strings"
	"testing"
)

func TestCleanPreservesMathAndStripsCitations(t *testing.T) {
	out := Clean("Energy is $E=mc^2$ as shown [1].")
	if out != "Energy is $E=mc^2$ as shown." {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCleanLeavesDisplayMathUntouched(t *testing.T) {
	in := "See $$x_{[1]} = 10.1.2$$ and [2,3] end"
	out := Clean(in)
	if out != "See $$x_{[1]} = 10.1.2$$ and end" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCleanCases(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"hyphen break":   {"infor-\nmation theory", "information theory"},
		"arxiv header":   {"arXiv:2101.12345v2 [cs.LG]\nTitle here", "Title here"},
		"page furniture": {"Intro text\n12\nMore text\nPage 3 of 10\nEnd", "Intro text\n\nMore text\n\nEnd"},
		"slash command":  {"//frac and http://example.com", `\frac and http://example.com`},
		"doi":            {"see doi:10.1000/xyz123 now", "see now"},
		"figure ref":     {"as plotted [Fig. 2] here", "as plotted here"},
		"blank lines":    {"a\n\n\n\n\nb", "a\n\nb"},
		"spaces":         {"a  \t b   ", "a b"},
		"empty":          {"", ""},
		"sentinel runes": {"a\uE0000\uE001b", "a0b"},
	}
	for name, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Fatalf("%s: got %q want %q", name, got, tc.want)
		}
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"Energy is $E=mc^2$ as shown [1].",
		"See $$x_{[1]} = 10.1.2$$ and [2,3] end",
		"arXiv:2101.12345v2 [cs.LG]\nA Study of Things\n\n\n\nWe intro-\nduce a method [4, 5] with cost $O(n)$.\n3\n",
		"PACS numbers: 03.65.Ud\nQuantum //alpha states, doi:10.1103/PhysRev.47.777 and [Table 1].",
	}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Fatalf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}

func TestCleanKeepsDisplayMathAfterStrayDollar(t *testing.T) {
	in := "Each run costs $5 and uses $$\\int_0^1 x dx$$ with cost $c$."
	out := Clean(in)
	if out != in {
		t.Fatalf("unexpected output: %q", out)
	}
	if strings.ContainsAny(out, tokenOpen+tokenClose) {
		t.Fatalf("placeholder leaked: %q", out)
	}
}

func TestCleanKeepsMathOnPACSLine(t *testing.T) {
	out := Clean("PACS: 1$$E = mc^2$$ tail")
	if !strings.Contains(out, "$$E = mc^2$$") {
		t.Fatalf("display math lost: %q", out)
	}
}

func TestCleanRandomInputs(t *testing.T) {
	atoms := []string{
		"x", "word ", "$", "$$", " ", "\n", "\n\n\n", "[1]", "[2, 3]", "[Fig. 2]",
		"arXiv:2101.12345", "doi:10.1/x", "10.1000/abc", "1.2.3", "12", "Page 3 of 9",
		"infor-", "\nmation", "$E=mc^2$", "//frac", "http://a.b", "PACS: 1", ". ", ",", "a- b", "\t",
		"$$\\int_0^1 x dx$$", "$$E = mc^2$$",
	}
	display := []string{"$$\\int_0^1 x dx$$", "$$E = mc^2$$"}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20000; i++ {
		var b strings.Builder
		for n := 1 + rng.Intn(12); n > 0; n-- {
			b.WriteString(atoms[rng.Intn(len(atoms))])
		}
		in := b.String()
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Fatalf("not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
		if strings.ContainsAny(once, tokenOpen+tokenClose) {
			t.Fatalf("placeholder leaked for %q: %q", in, once)
		}
		if strings.Contains(in, "\n") {
			continue
		}
		for _, eq := range display {
			if strings.Contains(in, eq) && !strings.Contains(once, eq) {
				t.Fatalf("lost %q from %q: %q", eq, in, once)
			}
		}
	}
}
