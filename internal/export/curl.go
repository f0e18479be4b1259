package export

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

// WriteCurl renders a blueprint as an annotated shell script of cURL
// invocations, one per endpoint, using observed example values.
func WriteCurl(w io.Writer, bp *model.Blueprint) error {
	if _, err := fmt.Fprintf(w, "#!/bin/sh\n# %s\n", bp.Name); err != nil {
		return err
	}

	for _, ep := range bp.Endpoints {
		target := "https://" + ep.Host + examplePath(&ep)
		if q := exampleQuery(&ep); q != "" {
			target += "?" + q
		}

		fmt.Fprintf(w, "\n# %s %s", ep.Method, ep.PathTemplate)
		if ep.AuthRequired {
			fmt.Fprintf(w, " (auth required)")
		}
		fmt.Fprintf(w, "\ncurl -X %s '%s'", ep.Method, target)

		for _, p := range ep.HeaderParameters {
			value := p.Example
			if value == "" {
				value = "<" + p.Name + ">"
			}
			fmt.Fprintf(w, " \\\n  -H '%s: %s'", p.Name, value)
		}
		if ep.RequestBody != nil && len(ep.RequestBody.Examples) > 0 {
			if ep.RequestBody.ContentType != "" {
				fmt.Fprintf(w, " \\\n  -H 'Content-Type: %s'", ep.RequestBody.ContentType)
			}
			fmt.Fprintf(w, " \\\n  -d '%s'", ep.RequestBody.Examples[0])
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// examplePath substitutes observed example values back into the path
// template, keeping the placeholder when no example exists.
func examplePath(ep *model.Endpoint) string {
	path := ep.PathTemplate
	for _, p := range ep.PathParameters {
		if p.Example != "" {
			path = strings.ReplaceAll(path, "{"+p.Name+"}", p.Example)
		}
	}
	return path
}

func exampleQuery(ep *model.Endpoint) string {
	values := url.Values{}
	for _, p := range ep.QueryParameters {
		if p.Example != "" {
			values.Set(p.Name, p.Example)
		}
	}
	return values.Encode()
}
