package filter

// GroupInput holds the optional conditions accepted when listing groups.
// Unset fields contribute no predicate.
type GroupInput struct {
	NameEq      *string
	IsPrivateEq *bool
}

// FilterSet builds the filter set for the active conditions, in
// declaration order.
func (in GroupInput) FilterSet() *FilterSet {
	fs := &FilterSet{}
	if in.NameEq != nil {
		fs.Add("name", OpEq, *in.NameEq)
	}
	if in.IsPrivateEq != nil {
		fs.Add("is_private", OpEq, *in.IsPrivateEq)
	}
	return fs
}

// MemberInput holds the optional conditions accepted when listing group
// members.
type MemberInput struct {
	GroupIDEq *string
	UserIDEq  *string
	IsAdminEq *bool
	IsOwnerEq *bool
}

// FilterSet builds the filter set for the active conditions.
func (in MemberInput) FilterSet() *FilterSet {
	fs := &FilterSet{}
	if in.GroupIDEq != nil {
		fs.Add("group_id", OpEq, *in.GroupIDEq)
	}
	if in.UserIDEq != nil {
		fs.Add("user_id", OpEq, *in.UserIDEq)
	}
	if in.IsAdminEq != nil {
		fs.Add("is_admin", OpEq, *in.IsAdminEq)
	}
	if in.IsOwnerEq != nil {
		fs.Add("is_owner", OpEq, *in.IsOwnerEq)
	}
	return fs
}

// RequestInput holds the optional conditions accepted when listing join
// requests. Status is a plain string so the engine stays independent of
// the domain enum.
type RequestInput struct {
	GroupIDEq *string
	UserIDEq  *string
	StatusEq  *string
}

// FilterSet builds the filter set for the active conditions.
func (in RequestInput) FilterSet() *FilterSet {
	fs := &FilterSet{}
	if in.GroupIDEq != nil {
		fs.Add("group_id", OpEq, *in.GroupIDEq)
	}
	if in.UserIDEq != nil {
		fs.Add("user_id", OpEq, *in.UserIDEq)
	}
	if in.StatusEq != nil {
		fs.Add("status", OpEq, *in.StatusEq)
	}
	return fs
}
