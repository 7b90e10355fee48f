package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"appbuilder/internal/domain"
)

// MongoAppStore implements domain.AppStore on a MongoDB "apps" collection.
type MongoAppStore struct {
	client *mongo.Client
	apps   *mongo.Collection
}

// mongoApp is the stored shape of an application. Components are kept as
// an embedded document keyed by widget id, so fields such as
// components.<id>.component.component can be queried directly.
type mongoApp struct {
	ID         string              `bson:"_id"`
	Name       string              `bson:"name"`
	Components map[string]mongoBox `bson:"components"`
	CreatedAt  time.Time           `bson:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at"`
}

type mongoBox struct {
	Top       int            `bson:"top"`
	Left      int            `bson:"left"`
	Width     int            `bson:"width"`
	Height    int            `bson:"height"`
	Component mongoComponent `bson:"component"`
}

type mongoComponent struct {
	Component   string                   `bson:"component"`
	Name        string                   `bson:"name"`
	DisplayName string                   `bson:"display_name"`
	Description string                   `bson:"description,omitempty"`
	DefaultSize mongoSize                `bson:"default_size"`
	Properties  map[string]mongoProperty `bson:"properties,omitempty"`
	Events      []string                 `bson:"events,omitempty"`
}

type mongoSize struct {
	Width  int `bson:"width"`
	Height int `bson:"height"`
}

type mongoProperty struct {
	Type        string `bson:"type"`
	DisplayName string `bson:"display_name"`
	Default     string `bson:"default,omitempty"`
}

func toMongoComponents(c domain.Components) map[string]mongoBox {
	out := make(map[string]mongoBox, len(c))
	for id, b := range c {
		d := b.Component
		mc := mongoComponent{
			Component:   string(d.Component),
			Name:        d.Name,
			DisplayName: d.DisplayName,
			Description: d.Description,
			DefaultSize: mongoSize{Width: d.DefaultSize.Width, Height: d.DefaultSize.Height},
			Events:      d.Events,
		}
		if len(d.Properties) > 0 {
			mc.Properties = make(map[string]mongoProperty, len(d.Properties))
			for k, p := range d.Properties {
				mc.Properties[k] = mongoProperty{Type: p.Type, DisplayName: p.DisplayName, Default: p.Default}
			}
		}
		out[id] = mongoBox{Top: b.Top, Left: b.Left, Width: b.Width, Height: b.Height, Component: mc}
	}
	return out
}

func fromMongoComponents(m map[string]mongoBox) domain.Components {
	out := make(domain.Components, len(m))
	for id, b := range m {
		mc := b.Component
		td := domain.TypeDescriptor{
			Component:   domain.WidgetType(mc.Component),
			DisplayName: mc.DisplayName,
			Description: mc.Description,
			DefaultSize: domain.Size{Width: mc.DefaultSize.Width, Height: mc.DefaultSize.Height},
			Events:      mc.Events,
		}
		if len(mc.Properties) > 0 {
			td.Properties = make(map[string]domain.PropertyDef, len(mc.Properties))
			for k, p := range mc.Properties {
				td.Properties[k] = domain.PropertyDef{Type: p.Type, DisplayName: p.DisplayName, Default: p.Default}
			}
		}
		out[id] = domain.Box{
			ID:        id,
			Top:       b.Top,
			Left:      b.Left,
			Width:     b.Width,
			Height:    b.Height,
			Component: domain.ComponentData{TypeDescriptor: td, Name: mc.Name},
		}
	}
	return out
}

// OpenMongo connects to uri and uses the named database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoAppStore, error) {
	if database == "" {
		database = "appbuilder"
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoAppStore{
		client: client,
		apps:   client.Database(database).Collection("apps"),
	}, nil
}

func (s *MongoAppStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoAppStore) CreateApp(ctx context.Context, a *domain.AppDefinition) error {
	if a.Components == nil {
		a.Components = domain.Components{}
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := s.apps.InsertOne(ctx, mongoApp{
		ID:         a.ID,
		Name:       a.Name,
		Components: toMongoComponents(a.Components),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("insert app: %w", err)
	}
	return nil
}

func (s *MongoAppStore) GetApp(ctx context.Context, id string) (*domain.AppDefinition, error) {
	var doc mongoApp
	err := s.apps.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("app %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get app %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (s *MongoAppStore) ListApps(ctx context.Context) ([]domain.AppDefinition, error) {
	cursor, err := s.apps.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	var docs []mongoApp
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	apps := make([]domain.AppDefinition, 0, len(docs))
	for _, d := range docs {
		apps = append(apps, *d.toDomain())
	}
	return apps, nil
}

func (s *MongoAppStore) UpdateComponents(ctx context.Context, id string, c domain.Components) error {
	return s.set(ctx, id, bson.M{"components": toMongoComponents(c)})
}

func (s *MongoAppStore) RenameApp(ctx context.Context, id, name string) error {
	return s.set(ctx, id, bson.M{"name": name})
}

func (s *MongoAppStore) DeleteApp(ctx context.Context, id string) error {
	res, err := s.apps.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete app %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("app %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoAppStore) set(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.apps.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update app %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("app %s: %w", id, ErrNotFound)
	}
	return nil
}

func (d mongoApp) toDomain() *domain.AppDefinition {
	return &domain.AppDefinition{
		ID:         d.ID,
		Name:       d.Name,
		Components: fromMongoComponents(d.Components),
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
}
