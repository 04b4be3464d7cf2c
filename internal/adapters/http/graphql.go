package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
	"github.com/samirrijal/ymaps2gpx/internal/core/usecases"
)

// conversionSource unwraps the values resolvers hand to Conversion fields.
func conversionSource(src any) (*domain.Conversion, bool) {
	switch c := src.(type) {
	case *domain.Conversion:
		return c, c != nil
	case domain.Conversion:
		return &c, true
	}
	return nil, false
}

// userError keeps GraphQL error text limited to what end users may see.
func userError(err error) error {
	if msg := domain.UserMessage(err); msg != "" {
		return errors.New(msg)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return errors.New("internal error")
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	shapeEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "Shape",
		Values: graphql.EnumValueConfigMap{
			"ROUTES":   &graphql.EnumValueConfig{Value: string(synth.ShapeRoutes)},
			"TRACKS":   &graphql.EnumValueConfig{Value: string(synth.ShapeTracks)},
			"SEGMENTS": &graphql.EnumValueConfig{Value: string(synth.ShapeSegments)},
		},
	})

	conversionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Conversion",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"source":     &graphql.Field{Type: graphql.String},
			"shape":      &graphql.Field{Type: graphql.String},
			"elevation":  &graphql.Field{Type: graphql.Boolean},
			"lines":      &graphql.Field{Type: graphql.Int},
			"points":     &graphql.Field{Type: graphql.Int},
			"summary":    &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"gpx": &graphql.Field{
				Type:        graphql.String,
				Description: "GPX 1.1 document",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c, ok := conversionSource(p.Source)
					if !ok {
						return nil, nil
					}
					return string(c.GPX), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"conversion": &graphql.Field{
				Type:        conversionType,
				Description: "Get a recorded conversion by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					c, err := deps.Conversions.Get(p.Context, id)
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, userError(err)
					}
					return c, nil
				},
			},
			"conversions": &graphql.Field{
				Type:        graphql.NewList(conversionType),
				Description: "Recent conversions, newest first",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					if limit <= 0 || limit > 100 {
						limit = 20
					}
					items, _, err := deps.Conversions.ListRecent(p.Context, max(offset, 0), limit)
					if err != nil {
						return nil, userError(err)
					}
					return items, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"convert": &graphql.Field{
				Type:        conversionType,
				Description: "Convert a map link or a raw state document to GPX",
				Args: graphql.FieldConfigArgument{
					"url":       &graphql.ArgumentConfig{Type: graphql.String},
					"document":  &graphql.ArgumentConfig{Type: graphql.String},
					"shape":     &graphql.ArgumentConfig{Type: shapeEnum},
					"elevation": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					opts := usecases.ConvertOptions{Shape: deps.DefaultShape, Elevation: p.Args["elevation"].(bool)}
					if s, ok := p.Args["shape"].(string); ok {
						opts.Shape = synth.Shape(s)
					}

					mapURL, _ := p.Args["url"].(string)
					doc, _ := p.Args["document"].(string)

					var (
						c   *domain.Conversion
						err error
					)
					switch {
					case mapURL != "" && doc != "":
						return nil, errors.New("pass either url or document, not both")
					case mapURL != "":
						c, err = deps.Conversions.ConvertURL(p.Context, mapURL, opts)
					case doc != "":
						c, err = deps.Conversions.ConvertDocument(p.Context, []byte(doc), opts)
					default:
						return nil, errors.New("url or document is required")
					}
					if err != nil {
						return nil, userError(err)
					}
					return c, nil
				},
			},
			"merge": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Queue several map links to be combined into one file",
				Args: graphql.FieldConfigArgument{
					"urls":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
					"shape":     &graphql.ArgumentConfig{Type: shapeEnum},
					"elevation": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Merges == nil {
						return nil, errors.New("merge jobs are not enabled")
					}
					raw := p.Args["urls"].([]interface{})
					req := domain.MergeRequest{Elevation: p.Args["elevation"].(bool)}
					for _, u := range raw {
						req.URLs = append(req.URLs, u.(string))
					}
					if len(req.URLs) == 0 || len(req.URLs) > maxMergeURLs {
						return nil, errors.New("urls must list between 1 and 20 map links")
					}
					if s, ok := p.Args["shape"].(string); ok {
						req.Shape = s
					}
					if err := deps.Merges.PublishMergeRequest(p.Context, req); err != nil {
						return nil, userError(err)
					}
					return true, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
