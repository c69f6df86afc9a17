package memo

import (
	"context"
	"testing"

	"github.com/fbuild-go/memo/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type compileArgs struct {
	Source  string  `memo:"src"`
	Headers []string `memo:"srcs"`
	Output  string  `memo:"dst"`
	Extra   *string `memo:"optional_src"`
	Flags   string
}

func TestNewActionPartitionsFields(t *testing.T) {
	a := NewAction[compileArgs, string]("compile", "v1", func(context.Context, compileArgs) (string, error) {
		return "", nil
	})

	srcs, dsts, err := partition(compileArgs{
		Source:  "a.c",
		Headers: []string{"a.h", "b.h"},
		Output:  "a.o",
		Flags:   "-O2",
	}, a.fields)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.c", "a.h", "b.h"}, srcs)
	assert.ElementsMatch(t, []string{"a.o"}, dsts)
}

func TestPartitionSkipsUntaggedAndOptionalAbsent(t *testing.T) {
	a := NewAction[compileArgs, string]("compile", "v1", func(context.Context, compileArgs) (string, error) {
		return "", nil
	})
	srcs, _, err := partition(compileArgs{Source: "a.c", Output: "a.o"}, a.fields)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c"}, srcs)
}

func TestPartitionIncludesOptionalSrcWhenPresent(t *testing.T) {
	a := NewAction[compileArgs, string]("compile", "v1", func(context.Context, compileArgs) (string, error) {
		return "", nil
	})
	extra := "extra.h"
	srcs, _, err := partition(compileArgs{Source: "a.c", Output: "a.o", Extra: &extra}, a.fields)
	require.NoError(t, err)
	assert.Contains(t, srcs, "extra.h")
}

type lazyArgs struct {
	Ready chan struct{} `memo:"src"`
}

func TestPartitionRejectsChannelArgument(t *testing.T) {
	a := NewAction[lazyArgs, string]("lazy", "v1", func(context.Context, lazyArgs) (string, error) {
		return "", nil
	})
	_, _, err := partition(lazyArgs{Ready: make(chan struct{})}, a.fields)
	assert.ErrorIs(t, err, ErrLazyArgument)
}

type digestFunctor struct{ v string }

func (f digestFunctor) ActionDigest() digest.Digest { return digest.SumString(f.v) }

func TestNewFunctorActionUsesFunctorDigest(t *testing.T) {
	f1 := digestFunctor{v: "config-a"}
	f2 := digestFunctor{v: "config-b"}

	a1 := NewFunctorAction[compileArgs, string]("obj", f1, func(context.Context, compileArgs) (string, error) { return "", nil })
	a2 := NewFunctorAction[compileArgs, string]("obj", f2, func(context.Context, compileArgs) (string, error) { return "", nil })

	assert.NotEqual(t, a1.digest, a2.digest)
}
