package classdef

// Setting is a single name/value configuration entry on a component.
// Order is preserved as declared; names are unique within a component.
type Setting struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Component is one configured processing unit (service, router, or operation)
// inside a production. Type holds the declared implementation class name.
type Component struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Settings []Setting `json:"settings,omitempty"`
}

// Setting returns the value of the named setting, if declared.
func (c *Component) Setting(name string) (string, bool) {
	for _, s := range c.Settings {
		if s.Name == name {
			return s.Value, true
		}
	}
	return "", false
}

// Production is a named collection of components parsed from a
// ProductionDefinition block.
type Production struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Components  []Component `json:"components"`
}

// Component returns the named component, if declared.
func (p *Production) Component(name string) (*Component, bool) {
	for i := range p.Components {
		if p.Components[i].Name == name {
			return &p.Components[i], true
		}
	}
	return nil, false
}

// Action is a single directive inside a routing rule. Target refers to a
// component by name; resolution to a node happens downstream.
type Action struct {
	Kind   string            `json:"kind"`
	Target string            `json:"target"`
	Params map[string]string `json:"params,omitempty"`
}

// RoutingRule is one declarative condition/action pair. Condition is stored
// verbatim and never interpreted here. Source is the optional source
// constraint naming the component the rule fires for.
type RoutingRule struct {
	Name      string   `json:"name"`
	Condition string   `json:"condition,omitempty"`
	Source    string   `json:"source,omitempty"`
	Actions   []Action `json:"actions,omitempty"`
}

// RuleSet holds all rules declared by one rule-definition class. ClassName is
// the declaring class; a router component references it through its
// BusinessRuleName setting.
type RuleSet struct {
	ClassName string        `json:"class_name"`
	Rules     []RoutingRule `json:"rules"`
}
