// Command backfill stamps baseAddressKey on canteen documents written
// before the field existed. Running it once lets the API always query by
// baseAddressKey instead of carrying a legacy fallback read path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kantineguiden/services/api/internal/registry/domain"
)

var siblingSuffix = regexp.MustCompile(`_(\d+)$`)

type legacyCanteen struct {
	Key        string `bson:"_id"`
	Street     string `bson:"street"`
	PostalCode string `bson:"postalCode"`
	City       string `bson:"city"`
}

func main() {
	var (
		mongoURI   = flag.String("mongo-uri", envOrDefault("KANTINE_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
		database   = flag.String("db", envOrDefault("KANTINE_MONGO_DB", "kantineguiden"), "database name")
		collection = flag.String("canteens", "canteens", "canteen collection name")
		dryRun     = flag.Bool("dry-run", false, "report what would change without writing")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	canteens := client.Database(*database).Collection(*collection)

	filter := bson.M{"$or": bson.A{
		bson.M{"baseAddressKey": bson.M{"$exists": false}},
		bson.M{"baseAddressKey": ""},
	}}
	cursor, err := canteens.Find(ctx, filter)
	if err != nil {
		log.Fatalf("failed to query legacy canteens: %v", err)
	}
	defer cursor.Close(ctx)

	updated, skipped := 0, 0
	for cursor.Next(ctx) {
		var doc legacyCanteen
		if err := cursor.Decode(&doc); err != nil {
			log.Fatalf("failed to decode canteen: %v", err)
		}

		baseKey := deriveBaseKey(doc)
		if baseKey == "" {
			log.Printf("skipping %s: cannot derive a base address key", doc.Key)
			skipped++
			continue
		}

		if *dryRun {
			fmt.Printf("%s -> baseAddressKey=%s\n", doc.Key, baseKey)
			updated++
			continue
		}

		_, err := canteens.UpdateOne(ctx,
			bson.M{"_id": doc.Key},
			bson.M{"$set": bson.M{"baseAddressKey": baseKey}},
		)
		if err != nil {
			log.Fatalf("failed to update %s: %v", doc.Key, err)
		}
		updated++
	}
	if err := cursor.Err(); err != nil {
		log.Fatalf("cursor error: %v", err)
	}

	fmt.Printf("backfilled %d canteens, skipped %d\n", updated, skipped)
}

// deriveBaseKey recomputes the base key from the stored address fields and
// cross-checks it against the document key with its sibling suffix removed.
// A mismatch means the address fields were edited by hand; the key wins,
// since reviews reference it.
func deriveBaseKey(doc legacyCanteen) string {
	stripped := siblingSuffix.ReplaceAllString(doc.Key, "")
	if stripped == "" {
		return ""
	}
	if key, err := domain.Canonicalize(doc.Street, doc.PostalCode, doc.City); err == nil && string(key) != stripped {
		log.Printf("note: %s address fields canonicalize to %s, keeping %s", doc.Key, key, stripped)
	}
	return stripped
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
