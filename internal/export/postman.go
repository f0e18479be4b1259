package export

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

const postmanSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// WritePostman renders a blueprint as a Postman collection v2.1.
func WritePostman(w io.Writer, bp *model.Blueprint) error {
	items := make([]interface{}, 0, len(bp.Endpoints))
	for _, ep := range bp.Endpoints {
		items = append(items, buildPostmanItem(&ep))
	}

	collection := map[string]interface{}{
		"info": map[string]interface{}{
			"name":   bp.Name,
			"schema": postmanSchema,
		},
		"item": items,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(collection)
}

func buildPostmanItem(ep *model.Endpoint) map[string]interface{} {
	raw := "https://" + ep.Host + ep.PathTemplate

	headers := make([]interface{}, 0)
	for _, p := range ep.HeaderParameters {
		headers = append(headers, map[string]interface{}{
			"key":   p.Name,
			"value": p.Example,
		})
	}

	query := make([]interface{}, 0)
	for _, p := range ep.QueryParameters {
		query = append(query, map[string]interface{}{
			"key":   p.Name,
			"value": p.Example,
		})
	}

	request := map[string]interface{}{
		"method": ep.Method,
		"header": headers,
		"url": map[string]interface{}{
			"raw":  raw,
			"host": []string{ep.Host},
			"path": strings.Split(strings.TrimPrefix(ep.PathTemplate, "/"), "/"),
		},
	}
	if len(query) > 0 {
		request["url"].(map[string]interface{})["query"] = query
	}
	if ep.RequestBody != nil && len(ep.RequestBody.Examples) > 0 {
		request["body"] = map[string]interface{}{
			"mode": "raw",
			"raw":  ep.RequestBody.Examples[0],
		}
	}

	return map[string]interface{}{
		"name":    ep.Method + " " + ep.PathTemplate,
		"request": request,
	}
}
