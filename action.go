package memo

import (
	"context"
	"reflect"

	"github.com/fbuild-go/memo/digest"
)

// ActionDigest lets a functor (a value with captured state, the Go analogue
// of fbuild's bound-method "persistent object" actions) control its own
// function digest instead of relying on a fixed version string. Registering
// the same action name with a functor whose ActionDigest result has changed
// since the last run is treated exactly like a source edit: every call ever
// cached under that name is cleared.
type ActionDigest interface {
	ActionDigest() digest.Digest
}

// Action is a single cacheable operation: a function from In to (Out,
// error), together with the metadata memo needs to judge staleness without
// running it. In must be a struct; its exported fields are bound arguments,
// and a field tagged `memo:"src"`, `memo:"srcs"`, `memo:"optional_src"`,
// `memo:"dst"`, `memo:"dsts"`, or `memo:"optional_dst"` additionally names a
// file the call reads or writes.
//
// An Action must be registered once, at package scope, the way fbuild
// expects a cacheable routine to be declared once at a known site: its
// identity is the name it was registered under, not anything discovered at
// call time. Two Action values registered under the same name share one
// call history.
type Action[In, Out any] struct {
	name       string
	fn         func(context.Context, In) (Out, error)
	digest     digest.Digest
	returnRole Role
	fields     []fieldRole
}

type fieldRole struct {
	index int
	role  Role
}

// NewAction registers a cacheable action whose digest is derived from a
// developer-supplied version string. Bump version whenever fn's behavior
// changes in a way that should invalidate every call previously cached
// under name; memo has no way to hash Go source at runtime, so this is the
// direct equivalent of fbuild's "hash the routine's source text" without the
// automatic part.
func NewAction[In, Out any](name, version string, fn func(context.Context, In) (Out, error)) *Action[In, Out] {
	return newAction[In, Out](name, digest.SumString(version), fn)
}

// NewFunctorAction registers a cacheable action backed by a functor: a value
// that knows its own digest, the way a fbuild persistent-object constructor
// is keyed by class identity rather than a version string. Reconstructing
// the functor with different captured configuration between runs changes
// its digest and clears the action's call history automatically.
func NewFunctorAction[In, Out any](name string, functor ActionDigest, fn func(context.Context, In) (Out, error)) *Action[In, Out] {
	return newAction[In, Out](name, functor.ActionDigest(), fn)
}

func newAction[In, Out any](name string, d digest.Digest, fn func(context.Context, In) (Out, error)) *Action[In, Out] {
	a := &Action[In, Out]{
		name:   name,
		fn:     fn,
		digest: d,
		fields: fieldsOf[In](),
	}
	return a
}

// WithReturnRole marks the action's return value itself (not a field of it)
// as naming a file or files, for an action whose Out is a bare string,
// []string or *string path matching r. memo tags on the fields of a struct
// Out are not inspected.
func (a *Action[In, Out]) WithReturnRole(r Role) *Action[In, Out] {
	a.returnRole = r
	return a
}

// Name returns the action's registered name.
func (a *Action[In, Out]) Name() string {
	return a.name
}

func fieldsOf[In any]() []fieldRole {
	var zero In
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var fields []fieldRole
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		tagVal, present := f.Tag.Lookup("memo")
		if !present {
			continue
		}
		role, ok := roleFromTag(tagVal)
		if !ok {
			panic("memo: " + f.Name + ": " + ErrUnknownRole.Error() + ": " + tagVal)
		}
		fields = append(fields, fieldRole{index: i, role: role})
	}
	return fields
}

// partition walks in's tagged fields, returning its declared srcs and dsts,
// and rejects in if any of its exported fields holds a value that cannot be
// part of a call's identity (a channel or function value, the Go analogue
// of a generator or other one-shot producer).
func partition(in interface{}, fields []fieldRole) (srcs, dsts []string, err error) {
	v := reflect.ValueOf(in)
	if v.Kind() == reflect.Struct {
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if t.Field(i).PkgPath != "" {
				continue // unexported
			}
			switch v.Field(i).Kind() {
			case reflect.Chan, reflect.Func, reflect.UnsafePointer:
				return nil, nil, ErrLazyArgument
			}
		}
	}
	for _, fr := range fields {
		fv := v.Field(fr.index)
		switch {
		case fr.role.IsSrc():
			srcs = append(srcs, fr.role.Convert(fv)...)
		case fr.role.IsDst():
			dsts = append(dsts, fr.role.Convert(fv)...)
		}
	}
	return srcs, dsts, nil
}
