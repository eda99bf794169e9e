// Command seed fills the database with fake users, threads and engagement.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"agora/internal/bootstrap"
	"agora/internal/config"
	"agora/internal/observability"
	"agora/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numThreads := flag.Int("threads", 200, "Number of threads to create")
	comments := flag.Int("comments", 8, "Maximum comments per thread")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fakerSeed := flag.Int64("seed", 0, "Faker seed (0 = random)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d threads, clean=%v\n", *numUsers, *numThreads, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.Setup(os.Stdout, cfg.LogLevel)

	ctx := observability.EnsureCorrelationID(context.Background())
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFrom(cfg, "agora-seed"))
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	if *shouldClean {
		if err := seed.ClearAll(ctx, rt.DB); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
		if err := bootstrap.EnsureSystemActor(ctx, rt.DB); err != nil {
			log.Fatalf("❌ System actor setup failed: %v", err)
		}
	}

	s := seed.NewSeeder(rt.DB, rt.Threads, rt.Comments, *fakerSeed)
	if err := s.Run(ctx, seed.Options{
		NumUsers:          *numUsers,
		NumThreads:        *numThreads,
		CommentsPerThread: *comments,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s\n", seed.DefaultPassword)
}
