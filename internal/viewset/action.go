package viewset

// Action identifies the operation a resource endpoint is currently serving.
// The REST dispatcher derives it from the request method and shape before any
// configuration lookup happens, and it stays fixed for the whole request.
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDestroy  Action = "destroy"
)

// ActionSet is the capability set of a resource endpoint: the actions it
// agrees to serve. Endpoints compose capabilities explicitly instead of
// inheriting them from handler mixins.
type ActionSet map[Action]struct{}

// NewActionSet builds a capability set from the given actions.
func NewActionSet(actions ...Action) ActionSet {
	set := make(ActionSet, len(actions))
	for _, action := range actions {
		set[action] = struct{}{}
	}
	return set
}

// ReadOnlyActions covers list and retrieve.
func ReadOnlyActions() ActionSet {
	return NewActionSet(ActionList, ActionRetrieve)
}

// CRUDActions covers the five standard actions.
func CRUDActions() ActionSet {
	return NewActionSet(ActionList, ActionRetrieve, ActionCreate, ActionUpdate, ActionDestroy)
}

// Contains reports whether the endpoint serves the given action.
func (s ActionSet) Contains(action Action) bool {
	_, ok := s[action]
	return ok
}
