package site

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/dpotapov/go-folio"
	"github.com/dpotapov/go-folio/catalog"
)

// ProjectPattern is the route of a single project.
const ProjectPattern = "/projects/:slug"

// featuredQuery selects the projects shown on the home page.
const featuredQuery = "Featured"

// cardStagger is the delay between consecutive project cards.
const cardStagger = 80 * time.Millisecond

// ProjectPage renders the project named by the slug route parameter.
type ProjectPage struct {
	Catalog *catalog.Catalog
	Motion  *folio.Motion
}

var _ folio.Component = (*ProjectPage)(nil)

func (pp *ProjectPage) Render(s *folio.Scope) (*html.Node, error) {
	slug := s.Param("slug")

	p, ok := pp.Catalog.Get(slug)
	if !ok {
		s.SetStatus(http.StatusNotFound)
		s.SetTitle("Project not found")
		return folio.El("section", folio.Attr("class", "project-missing"),
			folio.El("h1", "Project not found"),
			folio.El("p", "There is no project called \""+slug+"\"."),
			folio.El("a", folio.Attr("href", "/"), "Back to all projects"),
		), nil
	}

	s.SetTitle(p.Title)

	article := folio.El("article", folio.Attr("class", "project"), folio.Attr("data-slug", p.Slug),
		folio.El("header",
			folio.El("h1", p.Title),
			projectMeta(p),
		),
	)
	if p.Image != "" {
		article.AppendChild(folio.El("img", folio.Attr("src", p.Image), folio.Attr("alt", p.Title)))
	}
	if p.Summary != "" {
		article.AppendChild(folio.El("p", folio.Attr("class", "lead"), p.Summary))
	}
	for _, para := range paragraphs(p.Body) {
		article.AppendChild(folio.El("p", para))
	}
	if p.URL != "" {
		article.AppendChild(folio.El("a", folio.Attr("class", "external"), folio.Attr("href", p.URL),
			folio.Attr("rel", "noopener"), "Visit project"))
	}

	if err := pp.Motion.Animate(article, folio.SlideUp.Name); err != nil {
		return nil, err
	}
	return article, nil
}

// HomePage lists the featured projects, or every project when none is featured.
type HomePage struct {
	Catalog *catalog.Catalog
	Motion  *folio.Motion
	Title   string
}

var _ folio.Component = (*HomePage)(nil)

func (hp *HomePage) Render(s *folio.Scope) (*html.Node, error) {
	projects, err := hp.Catalog.Query(featuredQuery)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		projects = hp.Catalog.List()
	}

	cards := make([]*html.Node, 0, len(projects))
	for _, p := range projects {
		href, err := folio.BuildPath(ProjectPattern, folio.Params{"slug": p.Slug})
		if err != nil {
			return nil, err
		}
		cards = append(cards, folio.El("a", folio.Attr("class", "card"), folio.Attr("href", href),
			folio.El("h2", p.Title),
			projectMeta(p),
			folio.El("p", p.Summary),
		))
	}

	if err := hp.Motion.Stagger(cards, folio.FadeIn.Name, cardStagger); err != nil {
		return nil, err
	}

	return folio.El("section", folio.Attr("class", "home"),
		folio.El("h1", hp.Title),
		folio.El("div", folio.Attr("class", "cards"), cards),
	), nil
}

// NotFoundPage renders into the outlet when no route matches.
type NotFoundPage struct{}

func (NotFoundPage) Render(s *folio.Scope) (*html.Node, error) {
	s.SetTitle("Page not found")
	return folio.El("section", folio.Attr("class", "not-found"),
		folio.El("h1", "Page not found"),
		folio.El("a", folio.Attr("href", "/"), "Go to the home page"),
	), nil
}

// ErrorPage replaces a page that failed to render. The error is logged, not shown.
type ErrorPage struct {
	Logger *slog.Logger
}

func (ep ErrorPage) Render(s *folio.Scope) (*html.Node, error) {
	if ep.Logger != nil {
		ep.Logger.ErrorContext(s.Context(), "Page failed to render", "path", s.Path(), "error", folio.ScopeError(s))
	}
	s.SetTitle("Something went wrong")
	return folio.El("section", folio.Attr("class", "error"),
		folio.El("h1", "Something went wrong"),
		folio.El("p", "This page could not be displayed. Please try again later."),
	), nil
}

func projectMeta(p catalog.Project) *html.Node {
	meta := folio.El("div", folio.Attr("class", "meta"))
	if p.Year != 0 {
		meta.AppendChild(folio.El("span", folio.Attr("class", "year"), strconv.Itoa(p.Year)))
	}
	if len(p.Tags) > 0 {
		tags := folio.El("ul", folio.Attr("class", "tags"))
		for _, t := range p.Tags {
			tags.AppendChild(folio.El("li", t))
		}
		meta.AppendChild(tags)
	}
	return meta
}

// paragraphs splits text on blank lines.
func paragraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, block)
		}
	}
	return out
}
