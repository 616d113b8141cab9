// Package graphql exposes the menu as a read-only GraphQL schema.
//
//	schema, err := graphql.NewMenuSchema(menuService)
//	r.Post("/graphql", "graphql", graphql.Handler(schema))
package graphql

import (
	"context"
	"errors"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/pkg/bind"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/response"
)

// MenuSource is what the schema reads from.
type MenuSource interface {
	List(ctx context.Context) ([]models.MenuItem, error)
	Get(ctx context.Context, id uint) (*models.MenuItem, error)
}

var menuItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MenuItem",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: item(func(m *models.MenuItem) interface{} { return int(m.ID) })},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: item(func(m *models.MenuItem) interface{} { return m.Name })},
		"description": &graphql.Field{Type: graphql.String, Resolve: item(func(m *models.MenuItem) interface{} { return m.Description })},
		"price":       &graphql.Field{Type: graphql.NewNonNull(graphql.Float), Resolve: item(func(m *models.MenuItem) interface{} { return m.Price.InexactFloat64() })},
		"category":    &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: item(func(m *models.MenuItem) interface{} { return m.Category })},
		"imageUrl":    &graphql.Field{Type: graphql.String, Resolve: item(func(m *models.MenuItem) interface{} { return m.ImageURL })},
		"isAvailable": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean), Resolve: item(func(m *models.MenuItem) interface{} { return m.IsAvailable })},
	},
})

func item(get func(*models.MenuItem) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		switch m := p.Source.(type) {
		case *models.MenuItem:
			return get(m), nil
		case models.MenuItem:
			return get(&m), nil
		}
		return nil, nil
	}
}

// NewSchema creates a schema from a root query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// NewMenuSchema builds the schema with the menu and menuItem(id) queries.
func NewMenuSchema(src MenuSource) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"menu": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(menuItemType))),
				Description: "Available menu items ordered by category.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return src.List(p.Context)
				},
			},
			"menuItem": &graphql.Field{
				Type: menuItemType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					if id <= 0 {
						return nil, errors.New("Menu item not found")
					}
					return src.Get(p.Context, uint(id))
				},
			},
		},
	})
	return NewSchema(query)
}

// Request is a GraphQL-over-HTTP POST body.
type Request struct {
	Query         string                 `json:"query" validate:"required" message:"The query field is required."`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler serves POST requests against schema. Resolver errors are reported
// in the result's errors array with a 200 status.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		errs, err := bind.JSON(w, r, &req)
		if err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if errs != nil {
			response.ValidationError(w, errs)
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})
		if result.HasErrors() {
			logger.WithCtx(r.Context()).Debug("graphql: query returned errors", "errors", len(result.Errors))
		}
		response.JSON(w, http.StatusOK, result)
	}
}
