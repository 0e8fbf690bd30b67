package keygen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestObjectKeySlugifiesName(t *testing.T) {
	key := ObjectKey("novels/abc", "My Cover Art.JPG")

	assert.True(t, strings.HasPrefix(key, "novels/abc/"), key)
	assert.True(t, strings.HasSuffix(key, "-my-cover-art.jpg"), key)

	name := strings.TrimPrefix(key, "novels/abc/")
	_, err := uuid.Parse(name[:36])
	assert.NoError(t, err)
}

func TestObjectKeyIsUnique(t *testing.T) {
	assert.NotEqual(t, ObjectKey("f", "a.png"), ObjectKey("f", "a.png"))
}

func TestObjectKeyWithoutUsableName(t *testing.T) {
	key := ObjectKey("", "???.png")
	assert.Len(t, key, 36+len(".png"))
}

func TestPaymentFolder(t *testing.T) {
	user := uuid.New()
	folder := PaymentFolder(user)
	assert.True(t, strings.HasPrefix(folder, "payments/"+user.String()+"/"))
	assert.NotEqual(t, folder, PaymentFolder(user))
}

func TestJoinFolder(t *testing.T) {
	assert.Equal(t, "a/b/c", JoinFolder("/a/", "", "b", "c/"))
}
