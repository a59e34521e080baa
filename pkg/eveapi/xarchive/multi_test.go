package xarchive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

func TestMulti_Save(t *testing.T) {
	ok := &fakeCollection{}
	boom := errors.New("down")
	failing := &fakeCollection{err: boom}

	m := Multi{newMongo(failing), nil, newMongo(ok), xapi.NullArchive{}}
	err := m.Save(context.Background(), testIdentity(), []byte(sheetXML))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ok.docs, 1)

	assert.NoError(t, Multi{}.Save(context.Background(), testIdentity(), nil))
}
