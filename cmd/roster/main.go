// Package main provides the roster binary: it manages stored player builds
// so tracking sessions can attribute hits to known party members.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/retrommo-tools/retrotracker/internal/config"
	"github.com/retrommo-tools/retrotracker/internal/game/player"
	"github.com/retrommo-tools/retrotracker/internal/storage/postgres"
)

// presetBuild is a commonly used build registered under a short alias.
type presetBuild struct {
	class  player.Class
	level  int
	gear   player.Gear
	boosts player.Stats
}

// presets are the standard endgame builds: strength warrior, defense
// warrior, and intelligence wizard.
var presets = map[string]presetBuild{
	"wr.str": {
		class: player.Warrior,
		level: 10,
		gear: player.Gear{
			Head: "dented_helm", Body: "leather_armor",
			Main: "tenderizer", Off: "studded_shield",
		},
		boosts: player.Stats{Strength: 6},
	},
	"wr.def": {
		class: player.Warrior,
		level: 10,
		gear: player.Gear{
			Head: "dented_helm", Body: "leather_armor",
			Main: "tenderizer", Off: "studded_shield",
		},
		boosts: player.Stats{Defense: 6},
	},
	"wz.int": {
		class: player.Wizard,
		level: 10,
		gear: player.Gear{
			Head: "mage_hat", Body: "tattered_cloak",
			Main: "crooked_wand", Off: "bone_bracelet",
		},
		boosts: player.Stats{Intelligence: 6},
	},
}

const usage = `usage: roster [-config path] <command> [args]

commands:
  presets         store the standard preset builds
  add <username>  interactively store a new build
  list            list stored builds
`

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()
	repo := postgres.NewPlayerRepository(pool.DB())

	switch args[0] {
	case "presets":
		err = cmdPresets(ctx, repo)
	case "add":
		if len(args) != 2 {
			log.Fatal("usage: roster add <username>")
		}
		err = cmdAdd(ctx, repo, args[1])
	case "list":
		err = cmdList(ctx, repo)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}

func cmdPresets(ctx context.Context, repo *postgres.PlayerRepository) error {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		preset := presets[name]
		p, err := player.New(preset.class, preset.level, preset.gear, preset.boosts)
		if err != nil {
			return fmt.Errorf("building preset %q: %w", name, err)
		}
		_, err = repo.Create(ctx, name, p)
		if errors.Is(err, postgres.ErrPlayerExists) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Printf("stored %s\n", name)
	}
	return nil
}

func cmdAdd(ctx context.Context, repo *postgres.PlayerRepository, username string) error {
	in := bufio.NewScanner(os.Stdin)

	fmt.Println("--- available classes ---")
	for _, c := range []player.Class{player.Warrior, player.Wizard, player.Cleric} {
		fmt.Printf("  %s\n", c)
	}
	class := player.Class(prompt(in, "class: "))
	if !player.ValidClass(class) {
		return fmt.Errorf("invalid class %q", class)
	}

	level, err := strconv.Atoi(prompt(in, fmt.Sprintf("level (1-%d): ", player.MaxLevel)))
	if err != nil {
		return fmt.Errorf("parsing level: %w", err)
	}

	var gear player.Gear
	slots := map[string]*string{
		"head": &gear.Head,
		"body": &gear.Body,
		"main": &gear.Main,
		"off":  &gear.Off,
	}
	for _, slot := range player.GearSlots {
		options := player.GearOptions(slot)
		sort.Strings(options)
		fmt.Printf("--- %s gear options ---\n", slot)
		for _, o := range options {
			fmt.Printf("  %s\n", o)
		}
		*slots[slot] = prompt(in, slot+": ")
	}

	var boosts player.Stats
	fields := []struct {
		name string
		dst  *int
	}{
		{"str", &boosts.Strength},
		{"def", &boosts.Defense},
		{"agi", &boosts.Agility},
		{"int", &boosts.Intelligence},
		{"wis", &boosts.Wisdom},
		{"lck", &boosts.Luck},
	}
	total := 0
	for _, f := range fields {
		n, err := strconv.Atoi(prompt(in, f.name+" boosts (0-6): "))
		if err != nil {
			return fmt.Errorf("parsing %s boosts: %w", f.name, err)
		}
		*f.dst = n
		total += n
	}
	if total > 6 {
		return fmt.Errorf("boost total %d exceeds the cap of 6", total)
	}

	p, err := player.New(class, level, gear, boosts)
	if err != nil {
		return err
	}
	rec, err := repo.Create(ctx, username, p)
	if err != nil {
		return err
	}
	fmt.Printf("stored %s (id %d)\n", username, rec.ID)
	return nil
}

func cmdList(ctx context.Context, repo *postgres.PlayerRepository) error {
	records, err := repo.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%s - Lv %d %s\n", rec.Username, rec.Player.Level, rec.Player.Class)
	}
	return nil
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}
