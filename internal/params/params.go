// Package params infers API parameter locations, types, required-ness,
// and co-occurrence correlations from observed value sets.
package params

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

// Transport and caching headers carry no API semantics and are never
// reported as parameters.
var skippedHeaders = map[string]bool{
	"host":                      true,
	"accept":                    true,
	"accept-encoding":           true,
	"accept-language":           true,
	"accept-charset":            true,
	"user-agent":                true,
	"cache-control":             true,
	"connection":                true,
	"content-length":            true,
	"pragma":                    true,
	"referer":                   true,
	"origin":                    true,
	"dnt":                       true,
	"te":                        true,
	"upgrade-insecure-requests": true,
	"if-modified-since":         true,
	"if-none-match":             true,
}

// Headers that carry credentials. Always flagged required; observed values
// are suppressed so credential material never reaches output.
var authHeaders = map[string]bool{
	"authorization":  true,
	"x-api-key":      true,
	"api-key":        true,
	"x-auth-token":   true,
	"x-access-token": true,
	"x-session-id":   true,
	"cookie":         true,
}

var placeholderRe = regexp.MustCompile(`\{([^}]+)\}`)

// Analyzer infers parameters from observed requests. It is stateless; the
// zero value is ready to use.
type Analyzer struct{}

// New creates a new parameter analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// PathParameters derives path parameters by matching every observed path
// against the template's regex and unioning the captured values per
// placeholder. Path parameters are always required: a path segment cannot
// be omitted.
func (a *Analyzer) PathParameters(template string, paths []string) []model.Parameter {
	names := placeholderRe.FindAllStringSubmatch(template, -1)
	if len(names) == 0 {
		return nil
	}

	re, err := templateRegexp(template)
	if err != nil {
		return nil
	}

	observed := make(map[string][]string, len(names))
	order := make([]string, 0, len(names))
	for _, m := range names {
		if _, ok := observed[m[1]]; !ok {
			observed[m[1]] = make([]string, 0)
			order = append(order, m[1])
		}
	}

	for _, path := range paths {
		match := re.FindStringSubmatch(path)
		if match == nil {
			continue
		}
		for i, m := range names {
			if i+1 < len(match) {
				observed[m[1]] = appendBounded(observed[m[1]], match[i+1])
			}
		}
	}

	result := make([]model.Parameter, 0, len(order))
	for _, name := range order {
		values := observed[name]
		result = append(result, model.Parameter{
			Name:           name,
			Location:       model.LocationPath,
			Type:           a.InferType(values),
			Required:       true,
			ObservedValues: values,
			Example:        firstOf(values),
		})
	}
	return result
}

// QueryParameters unions parameter names across the observed query maps.
// A parameter is required only when it appears in every request and there
// is more than one sample; a single observation proves nothing.
// The result is sorted by descending observation frequency.
func (a *Analyzer) QueryParameters(queries []map[string]string) []model.Parameter {
	total := len(queries)
	counts := make(map[string]int)
	observed := make(map[string][]string)

	for _, query := range queries {
		for name, value := range query {
			counts[name]++
			observed[name] = appendBounded(observed[name], value)
		}
	}

	result := make([]model.Parameter, 0, len(counts))
	for name, count := range counts {
		values := observed[name]
		result = append(result, model.Parameter{
			Name:           name,
			Location:       model.LocationQuery,
			Type:           a.InferType(values),
			Required:       count == total && total > 1,
			ObservedValues: values,
			Example:        firstOf(values),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		ci, cj := counts[result[i].Name], counts[result[j].Name]
		if ci != cj {
			return ci > cj
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// HeaderParameters unions header names across requests, skipping the
// transport/caching set. Auth-carrying headers are flagged required
// regardless of frequency, their values suppressed, and they sort first.
func (a *Analyzer) HeaderParameters(headers []map[string]string) []model.Parameter {
	total := len(headers)
	counts := make(map[string]int)
	observed := make(map[string][]string)
	display := make(map[string]string)

	for _, m := range headers {
		for name, value := range m {
			lower := strings.ToLower(name)
			if skippedHeaders[lower] || strings.HasPrefix(lower, "sec-") {
				continue
			}
			counts[lower]++
			if _, ok := display[lower]; !ok {
				display[lower] = name
			}
			if !authHeaders[lower] {
				observed[lower] = appendBounded(observed[lower], value)
			}
		}
	}

	result := make([]model.Parameter, 0, len(counts))
	for lower, count := range counts {
		values := observed[lower]
		param := model.Parameter{
			Name:           display[lower],
			Location:       model.LocationHeader,
			Type:           a.InferType(values),
			Required:       count == total && total > 1,
			ObservedValues: values,
			Example:        firstOf(values),
		}
		if authHeaders[lower] {
			param.Required = true
			param.Type = model.TypeString
			param.Description = "authentication credential"
		}
		result = append(result, param)
	}

	sort.SliceStable(result, func(i, j int) bool {
		ai := authHeaders[strings.ToLower(result[i].Name)]
		aj := authHeaders[strings.ToLower(result[j].Name)]
		if ai != aj {
			return ai
		}
		ci := counts[strings.ToLower(result[i].Name)]
		cj := counts[strings.ToLower(result[j].Name)]
		if ci != cj {
			return ci > cj
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// InferType infers a parameter type from its observed values. The check
// order is fixed: integer before number before boolean before array;
// anything else is a string.
func (a *Analyzer) InferType(values []string) model.ParameterType {
	if len(values) == 0 {
		return model.TypeString
	}

	allInt := true
	for _, v := range values {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			allInt = false
			break
		}
	}
	if allInt {
		return model.TypeInteger
	}

	allFloat := true
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			allFloat = false
			break
		}
	}
	if allFloat {
		return model.TypeNumber
	}

	allBool := true
	for _, v := range values {
		switch strings.ToLower(v) {
		case "true", "false", "0", "1":
		default:
			allBool = false
		}
		if !allBool {
			break
		}
	}
	if allBool {
		return model.TypeBoolean
	}

	for _, v := range values {
		if hasUnescapedComma(v) {
			return model.TypeArray
		}
	}

	return model.TypeString
}

// CorrelationKind classifies how two parameters co-occur.
type CorrelationKind string

// Correlation kinds.
const (
	AlwaysTogether      CorrelationKind = "always_together"
	FirstRequiresSecond CorrelationKind = "first_requires_second"
	SecondRequiresFirst CorrelationKind = "second_requires_first"
	OftenTogether       CorrelationKind = "often_together"
)

// Correlation records a co-occurrence relationship between two query
// parameters.
type Correlation struct {
	First    string          `json:"first"`
	Second   string          `json:"second"`
	Kind     CorrelationKind `json:"kind"`
	Together int             `json:"together"`
}

// Correlations classifies every unordered pair of query parameters that
// ever co-occurs by whether either parameter appears without the other.
func (a *Analyzer) Correlations(queries []map[string]string) []Correlation {
	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, query := range queries {
		for name := range query {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	result := make([]Correlation, 0)
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			first, second := names[i], names[j]
			together, firstOnly, secondOnly := 0, 0, 0
			for _, query := range queries {
				_, hasFirst := query[first]
				_, hasSecond := query[second]
				switch {
				case hasFirst && hasSecond:
					together++
				case hasFirst:
					firstOnly++
				case hasSecond:
					secondOnly++
				}
			}
			if together == 0 {
				continue
			}

			kind := OftenTogether
			switch {
			case firstOnly == 0 && secondOnly == 0:
				kind = AlwaysTogether
			case firstOnly == 0:
				kind = FirstRequiresSecond
			case secondOnly == 0:
				kind = SecondRequiresFirst
			}

			result = append(result, Correlation{
				First:    first,
				Second:   second,
				Kind:     kind,
				Together: together,
			})
		}
	}
	return result
}

// templateRegexp converts a path template into a matching regex: literal
// runs are quoted, each placeholder becomes a single-segment capture.
func templateRegexp(template string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	rest := template
	for {
		loc := placeholderRe.FindStringIndex(rest)
		if loc == nil {
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		b.WriteString(regexp.QuoteMeta(rest[:loc[0]]))
		b.WriteString("([^/]+)")
		rest = rest[loc[1]:]
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func hasUnescapedComma(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && (i == 0 || s[i-1] != '\\') {
			return true
		}
	}
	return false
}

// appendBounded appends a value unless already present, keeping at most
// MaxObservedValues samples.
func appendBounded(values []string, v string) []string {
	if len(values) >= model.MaxObservedValues {
		return values
	}
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
