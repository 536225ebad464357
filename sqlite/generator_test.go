package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asaidimu/go-autoquery/core/clause"
	"github.com/asaidimu/go-autoquery/core/criteria"
	"github.com/asaidimu/go-autoquery/core/query"
	"github.com/asaidimu/go-autoquery/core/schema"
)

func userSchema() *schema.Definition {
	return &schema.Definition{
		Name: "users",
		Fields: map[string]*schema.FieldDefinition{
			"name":      {Name: "name", Type: schema.FieldTypeString},
			"age":       {Name: "age", Type: schema.FieldTypeInteger},
			"email":     {Name: "email", Type: schema.FieldTypeString},
			"is_active": {Name: "is_active", Type: schema.FieldTypeBoolean},
			"tags": {
				Name:  "tags",
				Type:  schema.FieldTypeArray,
				Items: &schema.FieldDefinition{Name: "tags", Type: schema.FieldTypeString},
			},
			"address": {
				Name: "address",
				Type: schema.FieldTypeObject,
				Fields: map[string]*schema.FieldDefinition{
					"city": {Name: "city", Type: schema.FieldTypeString},
				},
			},
			"orders": {
				Name: "orders",
				Type: schema.FieldTypeArray,
				Items: &schema.FieldDefinition{
					Name: "orders",
					Type: schema.FieldTypeObject,
					Fields: map[string]*schema.FieldDefinition{
						"total": {Name: "total", Type: schema.FieldTypeNumber},
					},
				},
			},
		},
	}
}

func mustCriteria(t *testing.T, s *schema.Definition, segment string) *criteria.Criteria {
	t.Helper()
	c := criteria.NewParser(s, zap.NewNop()).GetCriteria(segment)
	require.NotNil(t, c, "segment %q must parse", segment)
	return c
}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator(nil)
	assert.Error(t, err)

	_, err = NewGenerator(&schema.Definition{})
	assert.Error(t, err, "a table name is required")

	g, err := NewGenerator(userSchema())
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestGenerateSelectSQL_Basic(t *testing.T) {
	g, err := NewGenerator(userSchema())
	require.NoError(t, err)

	sqlStr, params, err := g.GenerateSelectSQL(queryPlan{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users";`, sqlStr)
	assert.Empty(t, params)
}

func TestGenerateSelectSQL_Full(t *testing.T) {
	s := userSchema()
	g, err := NewGenerator(s)
	require.NoError(t, err)

	skip, take := 5, 10
	plan := queryPlan{
		criterias: []*criteria.Criteria{mustCriteria(t, s, "age>=30")},
		orderBy:   []clause.Ordering{{Column: "age", Direction: clause.DirectionDesc}},
		projection: []query.ProjectedColumn{
			{Name: "name", Alias: "name"},
			{Name: "age", Alias: "Age"},
		},
		skip: &skip,
		take: &take,
	}

	sqlStr, params, err := g.GenerateSelectSQL(plan)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "name" AS "name", "age" AS "Age" FROM "users" WHERE "age" >= ? ORDER BY "age" DESC LIMIT 10 OFFSET 5;`, sqlStr)
	assert.Equal(t, []any{int64(30)}, params)
}

func TestGenerateSelectSQL_Conditions(t *testing.T) {
	s := userSchema()
	g, err := NewGenerator(s)
	require.NoError(t, err)

	tests := []struct {
		segment    string
		wantWhere  string
		wantParams []any
	}{
		{segment: "age>30", wantWhere: `"age" > ?`, wantParams: []any{int64(30)}},
		{segment: "age<30", wantWhere: `"age" < ?`, wantParams: []any{int64(30)}},
		{segment: "age<=30", wantWhere: `"age" <= ?`, wantParams: []any{int64(30)}},
		{segment: "name==John", wantWhere: `"name" = ?`, wantParams: []any{"John"}},
		{segment: "name!=John", wantWhere: `"name" != ?`, wantParams: []any{"John"}},
		{segment: "age|=30,40", wantWhere: `"age" IN (?,?)`, wantParams: []any{int64(30), int64(40)}},
		{segment: "name@=oh", wantWhere: `"name" LIKE ?`, wantParams: []any{"%oh%"}},
		{segment: "name_=Jo", wantWhere: `"name" LIKE ?`, wantParams: []any{"Jo%"}},
		{segment: "name=_hn", wantWhere: `"name" LIKE ?`, wantParams: []any{"%hn"}},
		{segment: "email=null", wantWhere: `"email" IS NULL`, wantParams: nil},
		{segment: "is_active==true", wantWhere: `"is_active" = ?`, wantParams: []any{1}},
		{segment: "address.city==Oslo", wantWhere: `json_extract("address", '$.city') = ?`, wantParams: []any{"Oslo"}},
		{segment: "orders.total>100", wantWhere: `EXISTS (SELECT 1 FROM json_each("orders") WHERE json_extract(json_each.value, '$.total') > ?)`, wantParams: []any{100.0}},
		// A leaf-level collection is scanned element-wise, like the nested case.
		{segment: "tags==go", wantWhere: `EXISTS (SELECT 1 FROM json_each("tags") WHERE json_each.value = ?)`, wantParams: []any{"go"}},
		// Unparseable literals never match; they do not fail the statement.
		{segment: "age==abc", wantWhere: `1 = 0`, wantParams: nil},
		{segment: "age>abc", wantWhere: `1 = 0`, wantParams: nil},
		{segment: "age!=abc", wantWhere: `1 = 1`, wantParams: nil},
		{segment: "age|=30,abc", wantWhere: `"age" IN (?)`, wantParams: []any{int64(30)}},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			plan := queryPlan{criterias: []*criteria.Criteria{mustCriteria(t, s, tt.segment)}}
			sqlStr, params, err := g.GenerateSelectSQL(plan)
			require.NoError(t, err)
			assert.Equal(t, `SELECT * FROM "users" WHERE `+tt.wantWhere+";", sqlStr)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestGenerateSelectSQL_MultipleCriteria(t *testing.T) {
	s := userSchema()
	g, err := NewGenerator(s)
	require.NoError(t, err)

	plan := queryPlan{criterias: []*criteria.Criteria{
		mustCriteria(t, s, "age>30"),
		mustCriteria(t, s, "name@=li"),
	}}
	sqlStr, params, err := g.GenerateSelectSQL(plan)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "age" > ? AND "name" LIKE ?;`, sqlStr)
	assert.Equal(t, []any{int64(30), "%li%"}, params)
}

func TestGenerateSelectSQL_DistinctAndGroupBy(t *testing.T) {
	g, err := NewGenerator(userSchema())
	require.NoError(t, err)

	plan := queryPlan{distinct: true, groupBy: []string{"age"}}
	sqlStr, _, err := g.GenerateSelectSQL(plan)
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT * FROM "users" GROUP BY "age";`, sqlStr)
}

func TestGenerateSelectSQL_SkipWithoutTake(t *testing.T) {
	g, err := NewGenerator(userSchema())
	require.NoError(t, err)

	skip := 5
	sqlStr, _, err := g.GenerateSelectSQL(queryPlan{skip: &skip})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" LIMIT -1 OFFSET 5;`, sqlStr)
}

func TestGenerateSelectSQL_UnknownProjection(t *testing.T) {
	g, err := NewGenerator(userSchema())
	require.NoError(t, err)

	plan := queryPlan{projection: []query.ProjectedColumn{{Name: "bogus", Alias: "bogus"}}}
	_, _, err = g.GenerateSelectSQL(plan)
	assert.Error(t, err)
}

func TestGenerateSelectSQL_UnparseableLiteral(t *testing.T) {
	s := userSchema()
	g, err := NewGenerator(s)
	require.NoError(t, err)

	plan := queryPlan{criterias: []*criteria.Criteria{mustCriteria(t, s, "age==abc")}}
	sqlStr, params, err := g.GenerateSelectSQL(plan)
	require.NoError(t, err, "a literal that cannot be coerced to the column type never matches")
	assert.Equal(t, `SELECT * FROM "users" WHERE 1 = 0;`, sqlStr)
	assert.Empty(t, params)
}

func TestGenerateCountSQL(t *testing.T) {
	s := userSchema()
	g, err := NewGenerator(s)
	require.NoError(t, err)

	skip, take := 5, 10
	plan := queryPlan{
		criterias:  []*criteria.Criteria{mustCriteria(t, s, "age>30")},
		projection: []query.ProjectedColumn{{Name: "name", Alias: "name"}},
		orderBy:    []clause.Ordering{{Column: "age", Direction: clause.DirectionAsc}},
		skip:       &skip,
		take:       &take,
	}

	sqlStr, params, err := g.GenerateCountSQL(plan)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "users" WHERE "age" > ?;`, sqlStr)
	assert.Equal(t, []any{int64(30)}, params)
}

func TestGenerateCountSQL_Grouped(t *testing.T) {
	s := userSchema()
	g, err := NewGenerator(s)
	require.NoError(t, err)

	plan := queryPlan{
		criterias: []*criteria.Criteria{mustCriteria(t, s, "age>30")},
		groupBy:   []string{"is_active"},
	}

	sqlStr, params, err := g.GenerateCountSQL(plan)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM (SELECT 1 FROM "users" WHERE "age" > ? GROUP BY "is_active");`, sqlStr)
	assert.Equal(t, []any{int64(30)}, params)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"name"`, quoteIdentifier("name"))
	assert.Equal(t, `"we""ird"`, quoteIdentifier(`we"ird`))
}
