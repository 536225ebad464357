package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asaidimu/go-autoquery/core/clause"
	"github.com/asaidimu/go-autoquery/core/schema"
)

func userSchema() *schema.Definition {
	return &schema.Definition{
		Name: "users",
		Fields: map[string]*schema.FieldDefinition{
			"name":  {Name: "name", Type: schema.FieldTypeString},
			"age":   {Name: "age", Type: schema.FieldTypeInteger},
			"email": {Name: "email", Type: schema.FieldTypeString},
			"orders": {
				Name: "orders",
				Type: schema.FieldTypeArray,
				Items: &schema.FieldDefinition{
					Name: "orders",
					Type: schema.FieldTypeObject,
					Fields: map[string]*schema.FieldDefinition{
						"total": {Name: "total", Type: schema.FieldTypeNumber},
						"sku":   {Name: "sku", Type: schema.FieldTypeString},
					},
				},
			},
		},
	}
}

func TestFindFilter_Order(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		segment  string
		expected Operator
	}{
		{segment: "age>=30", expected: OperatorGreaterOrEqual},
		{segment: "age<=30", expected: OperatorLessOrEqual},
		{segment: "age>30", expected: OperatorGreaterThan},
		{segment: "age<30", expected: OperatorLessThan},
		{segment: "name==John", expected: OperatorEquals},
		{segment: "name!=John", expected: OperatorNotEquals},
		{segment: "name@=oh", expected: OperatorContains},
		{segment: "name_=Jo", expected: OperatorStartsWith},
		{segment: "name=_hn", expected: OperatorEndsWith},
		{segment: "age|=30,40", expected: OperatorIn},
		{segment: "email=null", expected: OperatorIsNull},
		// "==" must win over "=null" so an explicit null literal stays an
		// equality comparison.
		{segment: "email==null", expected: OperatorEquals},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			f := r.FindFilter(tt.segment)
			require.NotNil(t, f)
			assert.Equal(t, tt.expected, f.Operator)
		})
	}
}

func TestFindFilter_NotAFilter(t *testing.T) {
	r := NewRegistry()
	// A plain key=value pair carries no operator alias and is never a filter.
	assert.Nil(t, r.FindFilter("csrf_token,abc123"))
	assert.Nil(t, r.FindFilter("name"))
}

func TestGetCriteria(t *testing.T) {
	p := NewParser(userSchema(), zap.NewNop())

	t.Run("simple comparison", func(t *testing.T) {
		c := p.GetCriteria("age>30")
		require.NotNil(t, c)
		assert.Equal(t, []string{"age"}, c.ColumnPath)
		assert.Equal(t, "age", c.Column())
		assert.Equal(t, OperatorGreaterThan, c.Filter.Operator)
		assert.Equal(t, []string{"30"}, c.Values)
		assert.Equal(t, schema.FieldTypeInteger, c.Leaf.Type)
	})

	t.Run("collection navigation", func(t *testing.T) {
		c := p.GetCriteria("orders.total>100")
		require.NotNil(t, c)
		assert.Equal(t, []string{"orders", "total"}, c.ColumnPath)
		assert.Equal(t, "orders.total", c.Column())
		assert.Equal(t, schema.FieldTypeNumber, c.Leaf.Type)
	})

	t.Run("case-insensitive path", func(t *testing.T) {
		c := p.GetCriteria("Orders.Total>100")
		require.NotNil(t, c)
		assert.Equal(t, []string{"orders", "total"}, c.ColumnPath, "path is canonicalized")
	})

	t.Run("comma-separated operands", func(t *testing.T) {
		c := p.GetCriteria("age|=30, 40 ,50")
		require.NotNil(t, c)
		assert.Equal(t, OperatorIn, c.Filter.Operator)
		assert.Equal(t, []string{"30", "40", "50"}, c.Values)
	})

	t.Run("null check has no operands", func(t *testing.T) {
		c := p.GetCriteria("email=null")
		require.NotNil(t, c)
		assert.Equal(t, OperatorIsNull, c.Filter.Operator)
		assert.Empty(t, c.Values)
	})

	t.Run("unresolvable path is skipped", func(t *testing.T) {
		assert.Nil(t, p.GetCriteria("bogus>10"))
		assert.Nil(t, p.GetCriteria("orders.bogus>10"))
	})

	t.Run("missing column is skipped", func(t *testing.T) {
		assert.Nil(t, p.GetCriteria(">10"))
	})

	t.Run("no operator is skipped", func(t *testing.T) {
		assert.Nil(t, p.GetCriteria("age"))
	})
}

func TestGetCriterias(t *testing.T) {
	p := NewParser(userSchema(), zap.NewNop())

	segments := []*clause.Segment{
		{Raw: "select=name", Handled: true},
		{Raw: "name@=oh"},
		{Raw: "utm_source=ads"},
		{Raw: "orders.total%3E=100"},
	}

	criterias := p.GetCriterias("age>30", segments)
	require.Len(t, criterias, 3)

	assert.Equal(t, "age", criterias[0].Column())
	assert.Equal(t, OperatorGreaterThan, criterias[0].Filter.Operator)

	assert.Equal(t, "name", criterias[1].Column())
	assert.Equal(t, OperatorContains, criterias[1].Filter.Operator)

	// URL-encoded segments are decoded before parsing.
	assert.Equal(t, "orders.total", criterias[2].Column())
	assert.Equal(t, OperatorGreaterOrEqual, criterias[2].Filter.Operator)
	assert.Equal(t, []string{"100"}, criterias[2].Values)
}

func TestGetCriterias_EmptyFilter(t *testing.T) {
	p := NewParser(userSchema(), zap.NewNop())
	criterias := p.GetCriterias("", nil)
	assert.Empty(t, criterias)
}
