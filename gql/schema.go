// Package gql exposes the GraphQL variant of the service: the same
// usecases as the REST surface behind a single /graphql endpoint.
package gql

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"github.com/aeristo/airlog/auth"
	"github.com/aeristo/airlog/schema"
	"github.com/aeristo/airlog/usecase"
	"github.com/aeristo/airlog/validation"
)

// ErrNotAuthenticated is returned by addMeasurement when the request
// carries no valid bearer token.
var ErrNotAuthenticated = errors.New("not authenticated")

// Token is the GraphQL Token type's backing value.
type Token struct {
	Value string `json:"value"`
}

// Resolver holds the dependencies behind the GraphQL fields.
type Resolver struct {
	measurements *usecase.MeasurementUseCase
	accounts     *usecase.AccountUseCase
	logger       *logrus.Logger
}

func NewResolver(measurements *usecase.MeasurementUseCase, accounts *usecase.AccountUseCase, logger *logrus.Logger) *Resolver {
	return &Resolver{
		measurements: measurements,
		accounts:     accounts,
		logger:       logger,
	}
}

// NewSchema builds the executable schema around the resolver.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	measurementType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Measurement",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Resolve: resolveMeasurementID,
			},
			"measurementDate": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"temperature":     &graphql.Field{Type: graphql.Float},
			"humidity":        &graphql.Field{Type: graphql.Float},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Resolve: resolveUserID,
			},
			"username":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"passwordHash": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	tokenType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Token",
		Fields: graphql.Fields{
			"value": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"measurements": &graphql.Field{
				Type:    graphql.NewList(measurementType),
				Resolve: r.resolveMeasurements,
			},
			"numberOfMeasurements": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Int),
				Resolve: r.resolveNumberOfMeasurements,
			},
			"users": &graphql.Field{
				Type:    graphql.NewList(userType),
				Resolve: r.resolveUsers,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addMeasurement": &graphql.Field{
				Type: measurementType,
				Args: graphql.FieldConfigArgument{
					"measurementDate": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"temperature":     &graphql.ArgumentConfig{Type: graphql.Float},
					"humidity":        &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: r.resolveAddMeasurement,
			},
			"addUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveAddUser,
			},
			"login": &graphql.Field{
				Type: tokenType,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveLogin,
			},
		},
	})

	subscriptionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			// Declared for schema completeness; delivery runs over the
			// websocket hub, fire and forget.
			"measurementAdded": &graphql.Field{
				Type: graphql.NewNonNull(measurementType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:        queryType,
		Mutation:     mutationType,
		Subscription: subscriptionType,
	})
}

func resolveMeasurementID(p graphql.ResolveParams) (interface{}, error) {
	switch m := p.Source.(type) {
	case *schema.Measurement:
		return m.ID.Hex(), nil
	case schema.Measurement:
		return m.ID.Hex(), nil
	}
	return nil, fmt.Errorf("unexpected measurement source %T", p.Source)
}

func resolveUserID(p graphql.ResolveParams) (interface{}, error) {
	switch u := p.Source.(type) {
	case *schema.User:
		return u.ID.Hex(), nil
	case schema.User:
		return u.ID.Hex(), nil
	}
	return nil, fmt.Errorf("unexpected user source %T", p.Source)
}

func (r *Resolver) resolveMeasurements(p graphql.ResolveParams) (interface{}, error) {
	return r.measurements.List(p.Context, uuid.New().String())
}

func (r *Resolver) resolveNumberOfMeasurements(p graphql.ResolveParams) (interface{}, error) {
	count, err := r.measurements.Count(p.Context, uuid.New().String())
	if err != nil {
		return nil, err
	}
	return int(count), nil
}

func (r *Resolver) resolveUsers(p graphql.ResolveParams) (interface{}, error) {
	return r.accounts.Users(p.Context)
}

// resolveAddMeasurement requires a verified identity on the context and
// funnels the arguments through the same validator as the REST pipeline.
func (r *Resolver) resolveAddMeasurement(p graphql.ResolveParams) (interface{}, error) {
	identity, ok := auth.IdentityFromContext(p.Context)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	input := &validation.MeasurementInput{}
	input.MeasurementDate, _ = p.Args["measurementDate"].(string)
	if value, present := p.Args["temperature"].(float64); present {
		text := strconv.FormatFloat(value, 'f', -1, 64)
		input.Temperature = &text
	}
	if value, present := p.Args["humidity"].(float64); present {
		text := strconv.FormatFloat(value, 'f', -1, 64)
		input.Humidity = &text
	}

	if invalid := input.Validate(); len(invalid) > 0 {
		return nil, fmt.Errorf("invalid field(s): %v", invalid)
	}

	traceID := uuid.New().String()
	r.logger.Infof("{%s} addMeasurement by %s", traceID, identity.Username)
	return r.measurements.Create(p.Context, traceID, input)
}

func (r *Resolver) resolveAddUser(p graphql.ResolveParams) (interface{}, error) {
	username, _ := p.Args["username"].(string)
	password, _ := p.Args["password"].(string)
	return r.accounts.Register(p.Context, username, password)
}

// resolveLogin returns an explicit null Token on bad credentials, not a
// GraphQL error.
func (r *Resolver) resolveLogin(p graphql.ResolveParams) (interface{}, error) {
	username, _ := p.Args["username"].(string)
	password, _ := p.Args["password"].(string)

	raw, err := r.accounts.Login(p.Context, username, password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			return nil, nil
		}
		return nil, err
	}
	return &Token{Value: raw}, nil
}
