package graph

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/PentesterFlow/apimapper/internal/urlutil"
	"github.com/PentesterFlow/apimapper/pkg/model"
)

// EnrichFromHTML parses captured HTML response bodies to decorate the
// graph: page nodes pick up their <title>, anchors become link edges, and
// form targets become form nodes with form_submit edges. Unparseable
// bodies are skipped; enrichment never fails the build.
func (b *Builder) EnrichFromHTML(exchanges []model.Exchange) {
	for i := range exchanges {
		ex := &exchanges[i]
		if ex.Response == nil || ex.Response.Body == "" {
			continue
		}
		if !strings.Contains(ex.Response.ContentType(), "html") {
			continue
		}
		pageURL := urlutil.Normalize(ex.Request.URL)
		if _, ok := b.nodes[pageURL]; !ok {
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(ex.Response.Body))
		if err != nil {
			b.log.WithExchange(ex.ID).WithError(err).Debug("skipping unparseable HTML body")
			continue
		}

		if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
			b.graph.Nodes[b.nodes[pageURL]].Title = title
		}

		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			href = strings.TrimSpace(href)
			if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
				return
			}
			target := urlutil.Normalize(urlutil.Resolve(pageURL, href))
			if urlutil.HostOf(target) == "" {
				return
			}
			b.ensureNode(target, model.NodePage)
			b.addEdge(model.EdgeLink, pageURL, target, strings.TrimSpace(sel.Text()))
		})

		doc.Find("form[action]").Each(func(_ int, sel *goquery.Selection) {
			action, _ := sel.Attr("action")
			action = strings.TrimSpace(action)
			if action == "" {
				return
			}
			target := urlutil.Normalize(urlutil.Resolve(pageURL, action))
			if urlutil.HostOf(target) == "" {
				return
			}
			idx := b.ensureNode(target, model.NodeForm)
			if b.graph.Nodes[idx].Kind == model.NodeResource {
				b.graph.Nodes[idx].Kind = model.NodeForm
			}
			method, _ := sel.Attr("method")
			b.addEdge(model.EdgeFormPost, pageURL, target, strings.ToUpper(method))
		})
	}
}
