package fields

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharFieldValidate(t *testing.T) {
	f := Char("name", 5)

	v, err := f.Validate("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	_, err = f.Validate("too long value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	_, err = f.Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be null")
}

func TestCharFieldNullable(t *testing.T) {
	f := Char("name", 5, Null())
	v, err := f.Validate(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCharFieldStorageType(t *testing.T) {
	assert.Equal(t, "VARCHAR(50)", Char("name", 50).StorageType())
	assert.Equal(t, "TEXT", Text("body").StorageType())
}

func TestChoices(t *testing.T) {
	f := Char("status", 10, Choices("draft", "active"))

	_, err := f.Validate("active")
	require.NoError(t, err)

	_, err = f.Validate("obsolete")
	require.Error(t, err)
}

func TestIntegerFieldCoercion(t *testing.T) {
	f := Integer("count")

	v, err := f.Validate("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = f.Validate(7.0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	_, err = f.Validate(7.5)
	require.Error(t, err)

	_, err = f.Validate("not a number")
	require.Error(t, err)
}

func TestSmallIntegerBounds(t *testing.T) {
	f := SmallInteger("n")

	_, err := f.Validate(32767)
	require.NoError(t, err)

	_, err = f.Validate(32768)
	require.Error(t, err)

	_, err = f.Validate(-32769)
	require.Error(t, err)
}

func TestPositiveInteger(t *testing.T) {
	f := PositiveInteger("n")
	_, err := f.Validate(-1)
	require.Error(t, err)
}

func TestAutoField(t *testing.T) {
	f := Auto("id")
	assert.True(t, f.AutoIncrement())
	assert.True(t, f.Options().PrimaryKey)
}

func TestDecimalFieldValidate(t *testing.T) {
	f := Decimal("price", 5, 2)

	v, err := f.Validate("9.99")
	require.NoError(t, err)
	assert.True(t, v.(decimal.Decimal).Equal(decimal.RequireFromString("9.99")))

	// six significant digits against a budget of five
	_, err = f.Validate("1234.56")
	require.Error(t, err)

	_, err = f.Validate("nonsense")
	require.Error(t, err)
}

func TestDecimalRoundTrip(t *testing.T) {
	f := Decimal("price", 10, 2)
	v, err := f.Validate("19.50")
	require.NoError(t, err)

	stored, err := f.ToStorage(v)
	require.NoError(t, err)
	assert.Equal(t, "19.5", stored)

	back, err := f.FromStorage(stored)
	require.NoError(t, err)
	assert.True(t, back.(decimal.Decimal).Equal(v.(decimal.Decimal)))
}

func TestBooleanFieldCoercion(t *testing.T) {
	f := Boolean("ok")

	for raw, want := range map[string]bool{"true": true, "1": true, "yes": true, "off": false, "0": false} {
		v, err := f.Validate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, v, raw)
	}

	_, err := f.Validate("maybe")
	require.Error(t, err)

	v, err := f.FromStorage(int64(1))
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestDateTimeParsing(t *testing.T) {
	f := DateTime("created_at")

	v, err := f.Validate("2026-08-29T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC), v)

	v, err = f.FromStorage("2026-08-29 10:30:00")
	require.NoError(t, err)
	assert.Equal(t, 10, v.(time.Time).Hour())

	_, err = f.Validate("yesterday")
	require.Error(t, err)
}

func TestDateTruncates(t *testing.T) {
	f := Date("day")
	v, err := f.Validate(time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	got := v.(time.Time)
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 29, got.Day())
}

func TestDurationField(t *testing.T) {
	f := Duration("ttl")

	v, err := f.Validate("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, v)

	v, err = f.Validate(90)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, v)

	stored, err := f.ToStorage(90 * time.Minute)
	require.NoError(t, err)
	back, err := f.FromStorage(stored)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, back)
}

func TestUUIDField(t *testing.T) {
	f := UUID("token")
	id := uuid.New()

	v, err := f.Validate(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, v)

	_, err = f.Validate("not-a-uuid")
	require.Error(t, err)
}

func TestEmailField(t *testing.T) {
	f := Email("contact")

	_, err := f.Validate("user@example.com")
	require.NoError(t, err)

	_, err = f.Validate("not-an-email")
	require.Error(t, err)
}

func TestIPAddressField(t *testing.T) {
	f := IPAddress("addr")

	_, err := f.Validate("192.168.0.1")
	require.NoError(t, err)

	_, err = f.Validate("999.1.1.1")
	require.Error(t, err)
}

func TestGenericIPProtocols(t *testing.T) {
	v4 := GenericIPAddress("addr", IPv4)
	_, err := v4.Validate("::1")
	require.Error(t, err)

	both := GenericIPAddress("addr", Both)
	_, err = both.Validate("::1")
	require.NoError(t, err)
}

func TestForeignKeyValidate(t *testing.T) {
	f := ForeignKey("product", "products", Cascade)
	v, err := f.Validate(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	one := OneToOne("profile", "profiles", Cascade)
	assert.True(t, one.OneToOneRelation())
	assert.True(t, one.Options().Unique)
}

func TestManyToManyHasNoColumn(t *testing.T) {
	f := ManyToMany("tags", "tags")
	assert.Empty(t, f.StorageType())
	_, err := f.Validate(1)
	require.Error(t, err)
}

func TestValidationErrorAggregation(t *testing.T) {
	e := &ValidationError{}
	e.Add("name", "cannot be null")
	e.Add("price", "must be a number")
	e.Add("name", "too long")

	other := NewValidationError(NonFieldErrors, "object is stale")
	e.Merge(other)

	assert.False(t, e.Empty())
	assert.Len(t, e.Errors["name"], 2)
	assert.Equal(t, "__all__: object is stale; name: cannot be null, too long; price: must be a number", e.Error())
}
