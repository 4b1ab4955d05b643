package inline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"inliner/compliance"
	"inliner/dom"
	"inliner/fetch"
	"inliner/inline"
)

const body = `<p class="turn_red">red</p>` +
	`<p class="turn_red" style="font-weight: bold;">red and bold</p>` +
	`<p>default</p>`

type stubFetcher map[string]fetch.Response

func (s stubFetcher) Get(_ context.Context, url string) (fetch.Response, error) {
	if resp, ok := s[url]; ok {
		return resp, nil
	}
	return fetch.Response{StatusCode: http.StatusNotFound}, nil
}

func TestConvert_EmbeddedStyle(t *testing.T) {
	html := `<html><head><style>.turn_red{ color: red; } .turn_red:hover{ color: magenta; }</style></head><body>` + body + `</body></html>`

	c, err := inline.Convert(context.Background(), html, "", inline.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	out := c.HTML()
	if strings.Contains(out, "<head><style>") {
		t.Error("embedded style element was not removed")
	}
	if !strings.Contains(out, `<p class="turn_red" style="color: red">red</p>`) {
		t.Errorf("first paragraph not styled:\n%s", out)
	}
	if !strings.Contains(out, `<p class="turn_red" style="font-weight: bold; color: red">red and bold</p>`) {
		t.Errorf("second paragraph not styled:\n%s", out)
	}
	if !strings.Contains(out, `<p>default</p>`) {
		t.Errorf("unmatched paragraph changed:\n%s", out)
	}
	if !strings.Contains(out, `<body><style type="text/css">.turn_red:hover { color: magenta }</style>`) {
		t.Errorf("retained rules not placed at start of body:\n%s", out)
	}
	if !strings.Contains(c.Retained(), "magenta") {
		t.Errorf("Retained() = %q", c.Retained())
	}
	if c.View().Len() != 2 {
		t.Errorf("view has %d entries", c.View().Len())
	}
	if c.SupportPercentage() != 100 {
		t.Errorf("SupportPercentage() = %f", c.SupportPercentage())
	}
}

func TestConvert_LinkedStylesheet(t *testing.T) {
	html := `<html><head><link rel="stylesheet" href="style.css" type="text/css"></head><body>` +
		`<a href="#">Skip</a><a href="page.html">Page</a><img src="/img/a.png">` + body + `</body></html>`

	f := stubFetcher{
		"https://mycss.com/style.css": {
			StatusCode: http.StatusOK,
			Body:       []byte(`.turn_red{ color: red; background: url(bg.png) } .turn_red:hover{ color: magenta; }`),
		},
	}

	c, err := inline.Convert(context.Background(), html, "https://mycss.com", inline.WithFetcher(f))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	out := c.HTML()
	for _, want := range []string{
		`<a href="#">Skip</a>`,
		`<a href="https://mycss.com/page.html">Page</a>`,
		`<img src="https://mycss.com/img/a.png"/>`,
		`background: url(https://mycss.com/bg.png)`,
		`magenta`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<link") {
		t.Errorf("link element was not removed:\n%s", out)
	}
	if len(c.Unsupported()["background"]) == 0 {
		t.Error("background expected in unsupported report")
	}
}

func TestConvert_LinkedStylesheetFailure(t *testing.T) {
	html := `<html><head><style>p{color:red}</style><link rel="stylesheet" href="style.css"></head><body>` + body + `</body></html>`

	c := inline.New(inline.WithFetcher(stubFetcher{}))
	doc, err := dom.ParseString(html, nil)
	if err != nil {
		t.Fatal(err)
	}
	before, _ := doc.Render()

	err = c.Perform(context.Background(), doc, "https://mycss.com")
	var rfe *fetch.ResourceFetchError
	if !errors.As(err, &rfe) {
		t.Fatalf("expected ResourceFetchError, got %v", err)
	}
	if rfe.URL != "https://mycss.com/style.css" || rfe.Status != http.StatusNotFound {
		t.Errorf("error = %+v", rfe)
	}

	after, _ := doc.Render()
	if before != after {
		t.Errorf("document changed on failure:\n%s", after)
	}
	if c.HTML() != "" {
		t.Error("output produced on failure")
	}
}

func TestConvert_HTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/css/main.css" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`p { margin: 0 }`)) //nolint:errcheck
	}))
	defer srv.Close()

	html := `<html><head><link rel="STYLESHEET" href="css/main.css"></head><body><p>x</p></body></html>`
	c, err := inline.Convert(context.Background(), html, srv.URL,
		inline.WithFetcher(fetch.NewHTTP(fetch.HTTPOptions{}, zaptest.NewLogger(t))))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !strings.Contains(c.HTML(), `<p style="margin: 0">x</p>`) {
		t.Errorf("output:\n%s", c.HTML())
	}
}

func TestConvert_Compliance(t *testing.T) {
	html := `<html><head><style>.pad_me{ background: black; padding: 10px 10px 10px 15px; transition: 3s; }</style></head>` +
		`<body><p class="pad_me">pad</p><p>do not pad</p></body></html>`

	c, err := inline.Convert(context.Background(), html, "")
	if err != nil {
		t.Fatal(err)
	}

	if c.View().Len() != 1 {
		t.Errorf("view has %d entries", c.View().Len())
	}
	report := c.Unsupported()
	if len(report) != 2 {
		t.Errorf("unsupported = %v, want background and transition", report.Properties())
	}
	if c.SupportPercentage() >= 100 {
		t.Errorf("SupportPercentage() = %f", c.SupportPercentage())
	}
	if !strings.Contains(c.HTML(), `style="background: black; padding: 10px 10px 10px 15px; transition: 3s"`) {
		t.Errorf("output:\n%s", c.HTML())
	}
}

func TestConvert_IgnoredTags(t *testing.T) {
	html := `<html><head><title>t</title><style>* { color: red }</style></head><body><p>x</p></body></html>`

	c, err := inline.Convert(context.Background(), html, "")
	if err != nil {
		t.Fatal(err)
	}
	out := c.HTML()
	for _, tag := range []string{"<html style", "<head style", "<title style"} {
		if strings.Contains(out, tag) {
			t.Errorf("ignored element styled: %s", out)
		}
	}
	if !strings.Contains(out, `<body style="color: red">`) || !strings.Contains(out, `<p style="color: red">`) {
		t.Errorf("output:\n%s", out)
	}
}

func TestConvert_SelectorErrors(t *testing.T) {
	html := `<html><head><style>p:nonsense { color: red } p { color: blue }</style></head><body><p>x</p></body></html>`

	c, err := inline.Convert(context.Background(), html, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Errors()) != 1 {
		t.Errorf("Errors() = %v", c.Errors())
	}
	if !strings.Contains(c.HTML(), `<p style="color: blue">`) {
		t.Errorf("output:\n%s", c.HTML())
	}
}

func TestConvert_CarriageReturnStripped(t *testing.T) {
	html := `<html><head><style>p { color: red }</style></head><body><p title="a&#13;b">x</p></body></html>`

	c, err := inline.Convert(context.Background(), html, "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(c.HTML(), "&#13;") {
		t.Errorf("carriage return entity left:\n%s", c.HTML())
	}
}

func TestConvert_NoBody(t *testing.T) {
	doc, err := dom.ParseString(`<html><head><style>a:hover{color:red} a{color:blue}</style></head><body><a>x</a></body></html>`, nil)
	if err != nil {
		t.Fatal(err)
	}
	body := doc.Body()
	body.Parent.RemoveChild(body)

	c := inline.New()
	if err := c.Perform(context.Background(), doc, ""); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(c.HTML(), "hover") {
		t.Errorf("retained block inserted without body:\n%s", c.HTML())
	}
}

func TestConvert_KeepMediaQueries(t *testing.T) {
	html := `<html><head><style>p{color:red} @media (max-width: 600px) { p { color: blue } }</style></head><body><p>x</p></body></html>`

	c, err := inline.Convert(context.Background(), html, "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(c.HTML(), "@media") {
		t.Errorf("media block kept by default:\n%s", c.HTML())
	}

	c, err = inline.Convert(context.Background(), html, "", inline.WithKeepMediaQueries(true))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.Retained(), "@media (max-width: 600px)") {
		t.Errorf("Retained() = %q", c.Retained())
	}
	if !strings.Contains(c.HTML(), `<p style="color: red">`) {
		t.Errorf("media rules must not be inlined:\n%s", c.HTML())
	}
}

func TestConvert_CustomTable(t *testing.T) {
	table, err := compliance.Load(strings.NewReader("property,Old Client,New Client\ncolor,none,full\n"), "custom")
	if err != nil {
		t.Fatal(err)
	}
	html := `<html><head><style>p{color:red}</style></head><body><p>x</p><p>y</p></body></html>`

	c, err := inline.Convert(context.Background(), html, "", inline.WithTable(table))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Unsupported()["color"]; len(got) != 1 || got[0] != "Old Client" {
		t.Errorf("Unsupported() = %v", c.Unsupported())
	}
	if c.SupportPercentage() != 50 {
		t.Errorf("SupportPercentage() = %f, want 50", c.SupportPercentage())
	}
}

func TestResolve(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><p class="a">x</p><p>y</p></body></html>`, nil)
	if err != nil {
		t.Fatal(err)
	}
	before, _ := doc.Render()

	view, err := inline.New().Resolve(doc, `.a { color: red }`)
	if err != nil {
		t.Fatal(err)
	}
	if view.Len() != 1 {
		t.Errorf("view has %d entries", view.Len())
	}
	after, _ := doc.Render()
	if before != after {
		t.Error("Resolve() changed document")
	}
}

func TestResolve_AfterPerform(t *testing.T) {
	const page = `<html><head><style>p{color:red} p[style]{padding:1px}</style></head><body><p>x</p></body></html>`

	doc, err := dom.ParseString(page, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := inline.New().Perform(context.Background(), doc, ""); err != nil {
		t.Fatal(err)
	}

	view, err := inline.New().Resolve(doc, `p[style]{padding:1px}`)
	if err != nil {
		t.Fatal(err)
	}
	if view.Len() != 1 {
		t.Fatalf("view has %d entries after inlining, want 1", view.Len())
	}
	style, _ := view.Style(view.Nodes()[0])
	if got := style.String(); got != "color: red; padding: 1px" {
		t.Errorf("style = %q", got)
	}
}

func TestConvert_RuleOriginAcrossSources(t *testing.T) {
	c, err := inline.Convert(context.Background(),
		`<html><head><style>p{color:red}</style><style>p{margin:0}</style></head><body><p>x</p></body></html>`, "")
	if err != nil {
		t.Fatal(err)
	}
	view := c.View()
	if view.Len() != 1 {
		t.Fatalf("view has %d entries", view.Len())
	}
	style, _ := view.Style(view.Nodes()[0])
	if e, _ := style.Get("margin"); e.Origin != 1 {
		t.Errorf("margin origin = %d, want 1", e.Origin)
	}
	if !strings.Contains(c.String(), `margin = "0" important=false specificity=`) || !strings.Contains(c.String(), "from rule #1") {
		t.Errorf("dump misses rule origin:\n%s", c.String())
	}
}

func TestInlineCSS(t *testing.T) {
	out, err := inline.InlineCSS(context.Background(), `<style>b{font-weight:600 !important}</style><b>x</b>`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<b style="font-weight: 600 !important">x</b>`) {
		t.Errorf("InlineCSS() = %s", out)
	}
}

func TestConversion_String(t *testing.T) {
	c, err := inline.Convert(context.Background(),
		`<html><head><style>.a{transition:3s} a:hover{color:red}</style></head><body><p id="x" class="a">x</p></body></html>`, "")
	if err != nil {
		t.Fatal(err)
	}
	dump := c.String()
	for _, want := range []string{"View (1 elements)", "p#x.a", "transition", "Retained:", "Unsupported"} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump misses %q:\n%s", want, dump)
		}
	}

	s := c.Summary("in.html", "out.html")
	if s.ID != c.ID().String() || s.StyledElements != 1 || len(s.Unsupported["transition"]) == 0 {
		t.Errorf("Summary() = %+v", s)
	}
}
