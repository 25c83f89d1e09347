package diagnostics

import "sort"

// Kind is the closed set of problems the analysis can report.
type Kind int

const (
	UnknownError Kind = iota
	MethodMustBePublic
	InvalidIdentifierName
	CommandReturnTypeInvalid
	FunctionReturnTypeInvalid
	MustHaveExactlyOneMarker
	FunctionMustBeStatic
	ActionMustBeInPubliclyAccessibleType
	ParameterTypeUnresolved
	ParameterPassedByReference
	// SyntaxError is raised by the frontend, not by action validation.
	SyntaxError
)

const (
	categoryActions  = "Actions"
	categoryFrontend = "Frontend"
	helpURI          = "https://docs.yarnspinner.dev/using-yarnspinner-with-unity/creating-commands-functions"
)

// Descriptor is the static description of a Kind.
type Descriptor struct {
	ID          string
	Kind        Kind
	Name        string
	Title       string
	Format      string
	Description string
	Category    string
	HelpURI     string
	Severity    Severity
}

var descriptors = map[Kind]Descriptor{
	UnknownError: {
		ID:       "YS0000",
		Name:     "UnknownError",
		Title:    "Internal unknown error",
		Format:   "An internal error was encountered while processing this action: %s",
		Category: categoryActions,
	},
	MethodMustBePublic: {
		ID:          "YS1001",
		Name:        "MethodMustBePublic",
		Title:       "Action methods must be public",
		Format:      "Command and function methods must be public. %q is %s.",
		Description: "Attributed action methods must be public so that generated code can reference them.",
		Category:    categoryActions,
		HelpURI:     helpURI,
	},
	InvalidIdentifierName: {
		ID:          "YS1002",
		Name:        "InvalidIdentifierName",
		Title:       "Action methods must have a valid name",
		Format:      "Command and function names must follow the script identifier rules. %q is invalid.",
		Description: "Commands are split on whitespace, so a name containing whitespace can never be called.",
		Category:    categoryActions,
		HelpURI:     helpURI,
	},
	CommandReturnTypeInvalid: {
		ID:       "YS1003",
		Name:     "CommandReturnTypeInvalid",
		Title:    "Command methods must return a valid type",
		Format:   "Command methods must return a valid type (either void, a coroutine, or a task). %q's return type is %s.",
		Category: categoryActions,
		HelpURI:  helpURI,
	},
	FunctionReturnTypeInvalid: {
		ID:       "YS1004",
		Name:     "FunctionReturnTypeInvalid",
		Title:    "Function methods must return a valid type",
		Format:   "Function methods must return a valid type (either bool, string, or a numeric type). %q's return type is %s.",
		Category: categoryActions,
		HelpURI:  helpURI,
	},
	MustHaveExactlyOneMarker: {
		ID:       "YS1005",
		Name:     "MustHaveExactlyOneMarker",
		Title:    "Action methods must have a single command or function attribute",
		Format:   "Command and function methods must have a single attribute. %q has %d.",
		Category: categoryActions,
		HelpURI:  helpURI,
	},
	FunctionMustBeStatic: {
		ID:       "YS1006",
		Name:     "FunctionMustBeStatic",
		Title:    "Function methods must be static",
		Format:   "Function methods are required to be static. %q is an instance method.",
		Category: categoryActions,
		HelpURI:  helpURI,
	},
	ActionMustBeInPubliclyAccessibleType: {
		ID:       "YS1007",
		Name:     "ActionMustBeInPubliclyAccessibleType",
		Title:    "Action methods must be in a public type",
		Format:   "Actions must be in a publicly accessible type. %s's containing type, %s, is %s.",
		Category: categoryActions,
		HelpURI:  helpURI,
	},
	ParameterTypeUnresolved: {
		ID:          "YS1008",
		Name:        "ParameterTypeUnresolved",
		Title:       "Action parameter types must be resolvable",
		Format:      "%q has parameter %q of type %s, which cannot be referenced from generated code.",
		Description: "Generated code names every parameter type by its full name. Declare the type in the analysed sources or add it to frontend.references.",
		Category:    categoryActions,
		HelpURI:     helpURI,
	},
	ParameterPassedByReference: {
		ID:          "YS1009",
		Name:        "ParameterPassedByReference",
		Title:       "Static action parameters must be passed by value",
		Format:      "%q is static and parameter %q is declared %s. Static actions are registered as generic delegates, which cannot take ref, out or in parameters.",
		Category:    categoryActions,
		HelpURI:     helpURI,
	},
	SyntaxError: {
		ID:       "CS0001",
		Name:     "SyntaxError",
		Title:    "Source could not be parsed",
		Format:   "Syntax error: %s",
		Category: categoryFrontend,
	},
}

func init() {
	for kind, d := range descriptors {
		d.Kind = kind
		d.Severity = SevWarning
		descriptors[kind] = d
	}
}

// Descriptor returns the static description for k.
func (k Kind) Descriptor() Descriptor {
	if d, ok := descriptors[k]; ok {
		return d
	}
	return descriptors[UnknownError]
}

func (k Kind) String() string {
	return k.Descriptor().Name
}

// ID returns the stable diagnostic id, e.g. "YS1004".
func (k Kind) ID() string {
	return k.Descriptor().ID
}

// Descriptors lists every descriptor ordered by id.
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
