package classdef

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/ensworks/prodgraph/pkg/common/errors"
)

// ProductionBlock is the XData block name carrying the production definition.
const ProductionBlock = "ProductionDefinition"

// Wire shapes for the embedded production markup. Unknown attributes and
// elements are ignored by encoding/xml, which matches the tolerant-parse
// policy: extras are not errors.
type xmlProduction struct {
	XMLName     xml.Name
	Name        string    `xml:"Name,attr"`
	Description string    `xml:"Description,attr"`
	DescElem    string    `xml:"Description"`
	Items       []xmlItem `xml:"Item"`
}

type xmlItem struct {
	Name      string       `xml:"Name,attr"`
	ClassName string       `xml:"ClassName,attr"`
	Settings  []xmlSetting `xml:"Setting"`
}

type xmlSetting struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

// ParseProduction parses raw class-definition text declaring a production.
func ParseProduction(text string) (*Production, error) {
	segment, err := ExtractXData(text, ProductionBlock)
	if err != nil {
		return nil, err
	}

	var root xmlProduction
	if err := xml.Unmarshal([]byte(segment), &root); err != nil {
		return nil, errors.NewParseError(errors.InvalidStructure,
			"production definition is not well-formed markup", err)
	}

	name := root.Name
	if name == "" {
		// Some emitters name the production on the class, not the root element.
		name = ClassName(text)
	}
	if name == "" {
		return nil, errors.NewParseError(errors.MissingRequiredField,
			"production has no Name attribute", nil)
	}

	desc := root.Description
	if desc == "" {
		desc = strings.TrimSpace(root.DescElem)
	}

	prod := &Production{
		Name:        name,
		Description: desc,
	}

	for _, item := range root.Items {
		if item.Name == "" || item.ClassName == "" {
			return nil, errors.NewParseError(errors.MissingRequiredField,
				fmt.Sprintf("item %q is missing Name or ClassName", item.Name), nil)
		}
		comp := Component{
			Name: item.Name,
			Type: item.ClassName,
		}
		for _, s := range item.Settings {
			if s.Name == "" {
				continue
			}
			comp.Settings = setSetting(comp.Settings, s.Name, s.Value)
		}
		prod.Components = append(prod.Components, comp)
	}

	return prod, nil
}

// setSetting appends or overwrites a setting, keeping declaration order and
// the keys-unique-per-component invariant. On a duplicate key the last
// declaration wins.
func setSetting(settings []Setting, name, value string) []Setting {
	for i := range settings {
		if settings[i].Name == name {
			settings[i].Value = value
			return settings
		}
	}
	return append(settings, Setting{Name: name, Value: value})
}
