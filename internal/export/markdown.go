package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

// WriteMarkdown renders a blueprint as a human-readable report.
func WriteMarkdown(w io.Writer, bp *model.Blueprint) error {
	fmt.Fprintf(w, "# %s\n\n", bp.Name)
	if bp.BaseURL != "" {
		fmt.Fprintf(w, "Base URL: `%s`\n\n", bp.BaseURL)
	}
	fmt.Fprintf(w, "Exchanges analyzed: %d | Endpoints: %d | Flows: %d\n\n",
		bp.Metadata.ExchangeCount, len(bp.Endpoints), len(bp.Flows))

	if len(bp.AuthPatterns) > 0 {
		fmt.Fprintf(w, "## Authentication\n\n")
		for _, p := range bp.AuthPatterns {
			fmt.Fprintf(w, "- **%s**%s\n", p.Scheme, authDetail(&p))
		}
		fmt.Fprintln(w)
	}

	if len(bp.Endpoints) > 0 {
		fmt.Fprintf(w, "## Endpoints\n\n")
		fmt.Fprintf(w, "| Method | Path | Auth | Hits | Success |\n")
		fmt.Fprintf(w, "|--------|------|------|------|---------|\n")
		for _, ep := range bp.Endpoints {
			auth := ""
			if ep.AuthRequired {
				auth = "yes"
			}
			fmt.Fprintf(w, "| %s | `%s` | %s | %d | %.0f%% |\n",
				ep.Method, ep.PathTemplate, auth,
				ep.Metadata.HitCount, ep.Metadata.SuccessRate*100)
		}
		fmt.Fprintln(w)

		for _, ep := range bp.Endpoints {
			writeEndpointDetail(w, &ep)
		}
	}

	if len(bp.Flows) > 0 {
		fmt.Fprintf(w, "## Flows\n\n")
		for _, flow := range bp.Flows {
			fmt.Fprintf(w, "### %s\n\n", flow.Name)
			if flow.Description != "" {
				fmt.Fprintf(w, "%s\n\n", flow.Description)
			}
			for _, step := range flow.Steps {
				fmt.Fprintf(w, "%d. `%s`", step.Order+1, step.EndpointID)
				if step.Description != "" {
					fmt.Fprintf(w, " - %s", step.Description)
				}
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w)
		}
	}

	return nil
}

func writeEndpointDetail(w io.Writer, ep *model.Endpoint) {
	fmt.Fprintf(w, "### %s %s\n\n", ep.Method, ep.PathTemplate)

	all := make([]model.Parameter, 0)
	all = append(all, ep.PathParameters...)
	all = append(all, ep.QueryParameters...)
	all = append(all, ep.HeaderParameters...)
	if len(all) > 0 {
		fmt.Fprintf(w, "| Parameter | In | Type | Required | Example |\n")
		fmt.Fprintf(w, "|-----------|----|------|----------|--------|\n")
		for _, p := range all {
			required := ""
			if p.Required {
				required = "yes"
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				p.Name, p.Location, p.Type, required, codeOrEmpty(p.Example))
		}
		fmt.Fprintln(w)
	}

	if len(ep.Responses) > 0 {
		statuses := make([]string, 0, len(ep.Responses))
		for _, r := range ep.Responses {
			statuses = append(statuses, fmt.Sprintf("%d", r.Status))
		}
		fmt.Fprintf(w, "Responses: %s\n\n", strings.Join(statuses, ", "))
	}
}

func authDetail(p *model.AuthPattern) string {
	switch {
	case p.HeaderName != "":
		return fmt.Sprintf(" via `%s` header", p.HeaderName)
	case p.CookieName != "":
		return fmt.Sprintf(" via `%s` cookie", p.CookieName)
	case p.TokenURL != "":
		return fmt.Sprintf(" token endpoint `%s`", p.TokenURL)
	default:
		return ""
	}
}

func codeOrEmpty(s string) string {
	if s == "" {
		return ""
	}
	return "`" + s + "`"
}
