package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultDocPath   = "docs/openapi.yaml"
	errorResponseRef = "#/components/schemas/ErrorResponse"
	errorDetailRef   = "#/components/schemas/ErrorDetail"
	responseRefBase  = "#/components/responses/"
)

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"patch": true, "head": true, "options": true,
}

type openAPIDoc struct {
	Paths      map[string]map[string]yaml.Node `yaml:"paths"`
	Components struct {
		Schemas   map[string]schema   `yaml:"schemas"`
		Responses map[string]response `yaml:"responses"`
	} `yaml:"components"`
}

type schema struct {
	Type       string            `yaml:"type"`
	Ref        string            `yaml:"$ref"`
	Properties map[string]schema `yaml:"properties"`
	Required   []string          `yaml:"required"`
	Items      *schema           `yaml:"items"`
}

type response struct {
	Ref     string `yaml:"$ref"`
	Content map[string]struct {
		Schema schema `yaml:"schema"`
	} `yaml:"content"`
}

type operation struct {
	Responses map[string]response `yaml:"responses"`
}

func main() {
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [openapi.yaml]\n", os.Args[0])
		os.Exit(2)
	}
	path := defaultDocPath
	if len(os.Args) == 2 {
		path = os.Args[1]
	}

	doc, err := loadDoc(path)
	if err != nil {
		exitErr(err)
	}
	if err := checkDoc(doc); err != nil {
		exitErr(err)
	}
	fmt.Println("OpenAPI error schema check passed.")
}

// checkDoc validates the shared error schemas and that every 4xx/5xx
// response of every operation uses them.
func checkDoc(doc openAPIDoc) error {
	errResp, err := getSchema(doc, "ErrorResponse")
	if err != nil {
		return err
	}
	detail, err := getSchema(doc, "ErrorDetail")
	if err != nil {
		return err
	}
	if err := validateErrorResponse(errResp); err != nil {
		return err
	}
	if err := validateErrorDetail(detail); err != nil {
		return err
	}
	problems, err := errorResponseProblems(doc)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return fmt.Errorf("error responses not using ErrorResponse:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func loadDoc(path string) (openAPIDoc, error) {
	var doc openAPIDoc
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func getSchema(doc openAPIDoc, name string) (schema, error) {
	if doc.Components.Schemas == nil {
		return schema{}, errors.New("components.schemas missing")
	}
	s, ok := doc.Components.Schemas[name]
	if !ok {
		return schema{}, fmt.Errorf("schema %q missing", name)
	}
	return s, nil
}

func validateErrorResponse(s schema) error {
	if s.Type != "object" {
		return errors.New("ErrorResponse must be object")
	}
	required := makeSet(s.Required)
	for _, field := range []string{"error", "code"} {
		if !required[field] {
			return fmt.Errorf("ErrorResponse.required must include %q", field)
		}
	}
	for _, field := range []string{"error", "code", "requestId"} {
		prop, ok := s.Properties[field]
		if !ok || prop.Type != "string" {
			return fmt.Errorf("ErrorResponse.%s must be string", field)
		}
	}
	detailsProp, ok := s.Properties["details"]
	if !ok || detailsProp.Type != "array" {
		return errors.New("ErrorResponse.details must be array")
	}
	if detailsProp.Items == nil || strings.TrimSpace(detailsProp.Items.Ref) != errorDetailRef {
		return errors.New("ErrorResponse.details.items must reference ErrorDetail")
	}
	return nil
}

func validateErrorDetail(s schema) error {
	if s.Type != "object" {
		return errors.New("ErrorDetail must be object")
	}
	if !makeSet(s.Required)["reason"] {
		return errors.New("ErrorDetail.required must include \"reason\"")
	}
	reasonProp, ok := s.Properties["reason"]
	if !ok || reasonProp.Type != "string" {
		return errors.New("ErrorDetail.reason must be string")
	}
	return nil
}

func errorResponseProblems(doc openAPIDoc) ([]string, error) {
	var problems []string
	for path, item := range doc.Paths {
		for method, node := range item {
			if !httpMethods[strings.ToLower(method)] {
				continue
			}
			var op operation
			if err := node.Decode(&op); err != nil {
				return nil, fmt.Errorf("decode %s %s: %w", strings.ToUpper(method), path, err)
			}
			for status, resp := range op.Responses {
				if !strings.HasPrefix(status, "4") && !strings.HasPrefix(status, "5") {
					continue
				}
				if !usesErrorSchema(doc, resp) {
					problems = append(problems, fmt.Sprintf("%s %s %s", strings.ToUpper(method), path, status))
				}
			}
		}
	}
	sort.Strings(problems)
	return problems, nil
}

func usesErrorSchema(doc openAPIDoc, resp response) bool {
	if ref := strings.TrimSpace(resp.Ref); ref != "" {
		shared, ok := doc.Components.Responses[strings.TrimPrefix(ref, responseRefBase)]
		if !ok || !strings.HasPrefix(ref, responseRefBase) {
			return false
		}
		resp = shared
	}
	media, ok := resp.Content["application/json"]
	return ok && strings.TrimSpace(media.Schema.Ref) == errorResponseRef
}

func makeSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out[item] = true
	}
	return out
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
