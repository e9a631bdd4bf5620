package main

import (
	"flag"
	"log"

	"github.com/danmuck/probectl/internal/config"
	"github.com/danmuck/probectl/internal/hwconfig"
)

func main() {
	kind := flag.String("kind", "session", "config kind: session|hwconfig|cluster")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		switch *kind {
		case "session":
			if _, err := config.LoadSession(path); err != nil {
				log.Fatal(err)
			}
		case "hwconfig":
			if _, err := hwconfig.Load(path); err != nil {
				log.Fatal(err)
			}
		case "cluster":
			if _, err := hwconfig.LoadCluster(path); err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "session":
		return "/opt/openthread_test/session.toml"
	case "hwconfig":
		return "/opt/openthread_test/hwconfig.ini"
	case "cluster":
		return "/opt/openthread_test/cluster.conf"
	}
	log.Fatalf("unknown kind: %s", kind)
	return ""
}
