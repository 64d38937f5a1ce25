package order_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/repoquery/internal/order"
)

var fields = order.NewFieldSet("name", "age", "rating")

func TestValidateDirectionTokens(t *testing.T) {
	tests := []struct {
		doc  string
		want order.Direction
	}{
		{`{"name":"ASC"}`, order.Asc},
		{`{"name":"asc"}`, order.Asc},
		{`{"name":"DESC"}`, order.Desc},
		{`{"name":"desc"}`, order.Desc},
		{`{"name":1}`, order.Asc},
		{`{"name":-1}`, order.Desc},
		{`{"name":"1"}`, order.Asc},
		{`{"name":"-1"}`, order.Desc},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			terms, err := order.ValidateJSON([]byte(tt.doc), fields)
			require.NoError(t, err)
			assert.Equal(t, []order.Term{{Field: "name", Direction: tt.want}}, terms)
		})
	}
}

func TestValidateStructured(t *testing.T) {
	terms, err := order.ValidateJSON([]byte(`{"name":{"direction":"DESC","nulls":"LAST"}}`), order.NewFieldSet("name"))
	require.NoError(t, err)
	assert.Equal(t, []order.Term{{Field: "name", Direction: order.Desc, Nulls: order.NullsLast}}, terms)

	terms, err = order.ValidateJSON([]byte(`{"name":{"nulls":"first"}}`), order.NewFieldSet("name"))
	require.NoError(t, err)
	assert.Equal(t, []order.Term{{Field: "name", Direction: order.Asc, Nulls: order.NullsFirst}}, terms)
}

func TestValidateKeepsRequestOrder(t *testing.T) {
	terms, err := order.ValidateJSON([]byte(`{"rating":"DESC","name":"ASC","age":-1}`), fields)
	require.NoError(t, err)

	var got []string
	for _, term := range terms {
		got = append(got, term.Field)
	}
	assert.Equal(t, []string{"rating", "name", "age"}, got)
}

func TestValidateNull(t *testing.T) {
	terms, err := order.ValidateJSON([]byte(`null`), fields)
	require.NoError(t, err)
	assert.Empty(t, terms)
}

func TestValidateUnknownField(t *testing.T) {
	_, err := order.ValidateJSON([]byte(`{"bogus":"ASC"}`), order.NewFieldSet("name"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, order.ErrUnknownField))

	var fe *order.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "bogus", fe.Field)
	assert.Equal(t, `order key "bogus" is not a field of the entity`, err.Error())
}

func TestValidateInvalidDirection(t *testing.T) {
	tests := []string{`{"name":"UP"}`, `{"name":"Asc"}`, `{"name":2}`, `{"name":true}`, `{"name":null}`, `{"name":["ASC"]}`}
	for _, doc := range tests {
		t.Run(doc, func(t *testing.T) {
			_, err := order.ValidateJSON([]byte(doc), order.NewFieldSet("name"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, order.ErrInvalidDirection), "got %v", err)
		})
	}

	_, err := order.ValidateJSON([]byte(`{"name":"UP"}`), order.NewFieldSet("name"))
	assert.Equal(t, `order "name": direction "UP" must be ASC or DESC or asc or desc or 1 or -1`, err.Error())
}

func TestValidateUnknownSortOption(t *testing.T) {
	_, err := order.ValidateJSON([]byte(`{"name":{"dir":"ASC"}}`), fields)
	require.Error(t, err)
	assert.True(t, errors.Is(err, order.ErrUnknownSortOption))

	var fe *order.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "dir", fe.Option)
}

func TestValidateInvalidSortValue(t *testing.T) {
	tests := []string{
		`{"name":{"direction":"UP"}}`,
		`{"name":{"direction":1}}`,
		`{"name":{"direction":"-1"}}`,
		`{"name":{"nulls":"middle"}}`,
		`{"name":{"nulls":"First"}}`,
	}
	for _, doc := range tests {
		t.Run(doc, func(t *testing.T) {
			_, err := order.ValidateJSON([]byte(doc), fields)
			require.Error(t, err)
			assert.True(t, errors.Is(err, order.ErrInvalidSortValue), "got %v", err)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	_, err := order.ValidateJSON([]byte(`{"bogus":"ASC","name":"UP","age":{"nulls":"middle","x":1},"rating":"DESC"}`), fields)
	require.Error(t, err)

	var errs order.Errors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 4)
	assert.True(t, errors.Is(errs[0], order.ErrUnknownField))
	assert.True(t, errors.Is(errs[1], order.ErrInvalidDirection))
	assert.True(t, errors.Is(errs[2], order.ErrInvalidSortValue))
	assert.True(t, errors.Is(errs[3], order.ErrUnknownSortOption))
	assert.Contains(t, err.Error(), "(and 3 more)")
}

func TestValidateMalformedSpec(t *testing.T) {
	_, err := order.ValidateJSON([]byte(`["name"]`), fields)
	assert.True(t, errors.Is(err, order.ErrMalformedSpec))
}

func TestValidateRepeatedKeyKeepsFirstPosition(t *testing.T) {
	terms, err := order.ValidateJSON([]byte(`{"name":"ASC","age":"ASC","name":"DESC"}`), fields)
	require.NoError(t, err)
	assert.Equal(t, []order.Term{
		{Field: "name", Direction: order.Desc},
		{Field: "age", Direction: order.Asc},
	}, terms)
}

func TestTermMarshalJSON(t *testing.T) {
	b, err := json.Marshal([]order.Term{
		{Field: "name", Direction: order.Desc, Nulls: order.NullsLast},
		{Field: "age"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"field":"name","direction":"DESC","nulls":"LAST"},{"field":"age","direction":"ASC"}]`, string(b))
}
