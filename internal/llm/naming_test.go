package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/snarg/eras-engine/internal/eras"
)

type fakeProvider struct {
	name      string
	responses []string
	errs      []error
	calls     int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Chat(ctx context.Context, prompt string, opts ChatOpts) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func testEra(id int) eras.Era {
	return eras.Era{
		ID:        id,
		StartDate: mustDate("2021-01-04"),
		EndDate:   mustDate("2021-01-18"),
		TopArtists: []eras.ArtistCount{
			{Artist: "Bon Iver", Plays: 10},
		},
	}
}

func TestNameEraNilProviderUsesFallback(t *testing.T) {
	c := NewClient(nil, ChatOpts{}, zerolog.Nop())
	named := c.NameEra(context.Background(), testEra(1))
	if named.Title == "" || named.Summary == "" {
		t.Fatalf("NameEra() with nil provider returned empty field: %+v", named)
	}
}

func TestNameEraUsesProviderResponse(t *testing.T) {
	fp := &fakeProvider{name: "fake", responses: []string{`{"title":"Bon Iver Autumn","summary":"A hushed season built entirely around one falsetto voice and acres of reverb."}`}}
	c := NewClient(fp, ChatOpts{}, zerolog.Nop())
	named := c.NameEra(context.Background(), testEra(1))
	if named.Title != "Bon Iver Autumn" {
		t.Errorf("Title = %q, want %q", named.Title, "Bon Iver Autumn")
	}
}

func TestNameEraFallsBackOnMalformedResponse(t *testing.T) {
	fp := &fakeProvider{name: "fake", responses: []string{"this is not json"}}
	c := NewClient(fp, ChatOpts{}, zerolog.Nop())
	named := c.NameEra(context.Background(), testEra(2))
	if named.Title == "" || named.Summary == "" {
		t.Fatalf("NameEra() fallback path returned empty field: %+v", named)
	}
}

func TestNameEraRetriesThenSucceeds(t *testing.T) {
	fp := &fakeProvider{
		name: "fake",
		errs: []error{errors.New("transient network error"), errors.New("transient network error"), nil},
		responses: []string{
			"", "",
			`{"title":"Falsetto Fall","summary":"A hushed season built entirely around one falsetto voice and acres of reverb."}`,
		},
	}
	c := NewClient(fp, ChatOpts{}, zerolog.Nop())
	named := c.NameEra(context.Background(), testEra(3))
	if named.Title != "Falsetto Fall" {
		t.Errorf("Title = %q, want %q after retries succeed", named.Title, "Falsetto Fall")
	}
	if fp.calls != 3 {
		t.Errorf("provider called %d times, want 3", fp.calls)
	}
}

func TestNameEraDoesNotRetryAuthError(t *testing.T) {
	fp := &fakeProvider{name: "fake", errs: []error{&AuthError{Provider: "fake", Msg: "bad credential"}}}
	c := NewClient(fp, ChatOpts{}, zerolog.Nop())
	named := c.NameEra(context.Background(), testEra(4))
	if named.Title == "" {
		t.Fatal("NameEra() should still fall back to a non-empty title on auth error")
	}
	if fp.calls != 1 {
		t.Errorf("provider called %d times, want 1 (auth errors are not retried)", fp.calls)
	}
}

func TestNameAllErasReportsProgressInRange(t *testing.T) {
	fp := &fakeProvider{name: "fake", responses: []string{`{"title":"A Title Here","summary":"A hushed season built entirely around one falsetto voice and acres of reverb."}`}}
	c := NewClient(fp, ChatOpts{}, zerolog.Nop())

	input := []eras.Era{testEra(1), testEra(2), testEra(3)}
	var percents []int
	out := c.NameAllEras(context.Background(), input, func(p int) { percents = append(percents, p) })

	if len(out) != 3 {
		t.Fatalf("NameAllEras() returned %d eras, want 3", len(out))
	}
	for _, era := range out {
		if era.Title == "" || era.Summary == "" {
			t.Errorf("era %d has empty title/summary after naming", era.ID)
		}
	}
	if len(percents) != 3 {
		t.Fatalf("got %d progress callbacks, want 3", len(percents))
	}
	for _, p := range percents {
		if p < 40 || p > 70 {
			t.Errorf("progress %d outside [40, 70]", p)
		}
	}
	if percents[len(percents)-1] != 70 {
		t.Errorf("final progress = %d, want 70", percents[len(percents)-1])
	}
}

func TestNameAllErasEmptyInput(t *testing.T) {
	c := NewClient(nil, ChatOpts{}, zerolog.Nop())
	out := c.NameAllEras(context.Background(), nil, func(p int) { t.Error("onProgress should not be called for empty input") })
	if len(out) != 0 {
		t.Errorf("NameAllEras(nil) = %v, want empty", out)
	}
}

func TestNameEraSafeRecoversFromPanic(t *testing.T) {
	c := NewClient(&panicProvider{}, ChatOpts{}, zerolog.Nop())
	named := c.nameEraSafe(context.Background(), testEra(5))
	if named.Title == "" || named.Summary == "" {
		t.Fatalf("nameEraSafe() did not recover to a fallback name: %+v", named)
	}
}

type panicProvider struct{}

func (p *panicProvider) Name() string { return "panic" }
func (p *panicProvider) Chat(ctx context.Context, prompt string, opts ChatOpts) (string, error) {
	panic("provider exploded")
}
