package memo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncMethodPropertyAllResolveToCall(t *testing.T) {
	db := newTestDB(t)
	var runs int
	action := NewAction[externalArgs, string]("decorated", "v1", func(_ context.Context, args externalArgs) (string, error) {
		runs++
		return "hi " + args.Name, nil
	})

	out, err := Func(context.Background(), db, action, externalArgs{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "hi a", out)

	out, err = Method(context.Background(), db, action, externalArgs{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "hi a", out)

	out, err = Property(context.Background(), db, action, externalArgs{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "hi a", out)

	assert.Equal(t, 1, runs, "Func/Method/Property all share the same underlying cached call")
}
