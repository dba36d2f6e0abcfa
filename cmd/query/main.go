// Package main provides the query binary: read-only reporting over the
// statistics the tracker has collected.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/retrommo-tools/retrotracker/internal/config"
	"github.com/retrommo-tools/retrotracker/internal/storage/postgres"
)

// monsterMaxHP holds observed max hit points per species, used to estimate
// one-shot chances from recorded damage samples.
var monsterMaxHP = map[string]int{
	"lizard":         15,
	"goblin archer":  32,
	"goblin grunt":   35,
	"goblin warrior": 39,
	"cave bat":       28,
}

const usage = `usage: query [-config path] <command> [args]

commands:
  players [username]              show stored player builds
  monsters                        list known monster species
  player-hits <player> <monster>  damage stats dealt by a player to a species
  monster-hits <player> <monster> damage stats taken by a player from a species
  encounters [id]                 list tracked encounters, or detail one
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

	switch args[0] {
	case "players":
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		err = cmdPlayers(ctx, pool, name)
	case "monsters":
		err = cmdMonsters(ctx, pool)
	case "player-hits":
		if len(args) != 3 {
			log.Fatal("usage: query player-hits <player> <monster>")
		}
		err = cmdHits(ctx, pool, args[1], args[2], true)
	case "monster-hits":
		if len(args) != 3 {
			log.Fatal("usage: query monster-hits <player> <monster>")
		}
		err = cmdHits(ctx, pool, args[1], args[2], false)
	case "encounters":
		if len(args) > 1 {
			var id int64
			id, err = strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				log.Fatalf("parsing encounter id: %v", err)
			}
			err = cmdEncounterDetail(ctx, pool, id)
		} else {
			err = cmdEncounters(ctx, pool)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}

func cmdPlayers(ctx context.Context, pool *postgres.Pool, name string) error {
	repo := postgres.NewPlayerRepository(pool.DB())

	var records []postgres.PlayerRecord
	if name != "" {
		rec, err := repo.GetByUsername(ctx, name)
		if err != nil {
			return err
		}
		records = append(records, rec)
	} else {
		var err error
		records, err = repo.List(ctx)
		if err != nil {
			return err
		}
	}

	for _, rec := range records {
		s := rec.Player.Stats
		fmt.Printf("-- %s Lv %d %s --\n", rec.Username, rec.Player.Level, rec.Player.Class)
		fmt.Printf("   hp:  %d\n", s.HP)
		fmt.Printf("   mp:  %d\n", s.MP)
		fmt.Printf("   str: %d\n", s.Strength)
		fmt.Printf("   def: %d\n", s.Defense)
		fmt.Printf("   agi: %d\n", s.Agility)
		fmt.Printf("   int: %d\n", s.Intelligence)
		fmt.Printf("   wis: %d\n", s.Wisdom)
		fmt.Printf("   lck: %d\n", s.Luck)
	}
	return nil
}

func cmdMonsters(ctx context.Context, pool *postgres.Pool) error {
	monsters, err := postgres.NewMonsterRepository(pool.DB()).List(ctx)
	if err != nil {
		return err
	}
	for _, m := range monsters {
		fmt.Println(m.Name)
	}
	return nil
}

func cmdHits(ctx context.Context, pool *postgres.Pool, player, monster string, dealt bool) error {
	repo := postgres.NewHitRepository(pool.DB())

	var (
		samples []postgres.HitSample
		err     error
	)
	if dealt {
		samples, err = repo.PlayerHitSamples(ctx, player, monster)
	} else {
		samples, err = repo.MonsterHitSamples(ctx, player, monster)
	}
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Println("no samples")
		return nil
	}

	byAbility := make(map[string][]int)
	for _, s := range samples {
		byAbility[s.Ability] = append(byAbility[s.Ability], s.Damage)
	}
	abilities := make([]string, 0, len(byAbility))
	for ability := range byAbility {
		abilities = append(abilities, ability)
	}
	sort.Strings(abilities)

	for _, ability := range abilities {
		hits := byAbility[ability]
		avg, std := meanStddev(hits)
		line := fmt.Sprintf("%s - n=%d avg=%.2f std=%.2f", ability, len(hits), avg, std)
		// One-shot chance only makes sense for damage dealt to a monster
		// with a known hp pool.
		if maxHP, ok := monsterMaxHP[monster]; dealt && ok {
			oneshots := 0
			for _, d := range hits {
				if d >= maxHP {
					oneshots++
				}
			}
			chance := float64(oneshots) / float64(len(hits)) * 100
			line += fmt.Sprintf(" (%.2f%% one-shot)", chance)
		}
		fmt.Println(line)
	}
	return nil
}

func cmdEncounters(ctx context.Context, pool *postgres.Pool) error {
	encounters, err := postgres.NewEncounterRepository(pool.DB()).List(ctx)
	if err != nil {
		return err
	}
	for _, enc := range encounters {
		end := "open"
		if enc.EndedAt != nil {
			end = enc.EndedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("#%d %s start=%s end=%s gold=%d exp=%d\n",
			enc.ID, enc.Session,
			enc.StartedAt.Format("2006-01-02 15:04:05"), end,
			enc.Gold, enc.Exp,
		)
	}
	return nil
}

func cmdEncounterDetail(ctx context.Context, pool *postgres.Pool, id int64) error {
	enc, totals, err := postgres.NewEncounterRepository(pool.DB()).Detail(ctx, id)
	if err != nil {
		return err
	}
	end := "open"
	if enc.EndedAt != nil {
		end = enc.EndedAt.Format("2006-01-02 15:04:05")
	}
	fmt.Printf("#%d %s start=%s end=%s gold=%d exp=%d\n",
		enc.ID, enc.Session,
		enc.StartedAt.Format("2006-01-02 15:04:05"), end,
		enc.Gold, enc.Exp,
	)
	for _, t := range totals {
		fmt.Printf("   %s dealt=%d taken=%d\n", t.Username, t.Dealt, t.Taken)
	}
	return nil
}

// meanStddev returns the mean and population standard deviation of samples.
//
// Precondition: samples must be non-empty.
func meanStddev(samples []int) (float64, float64) {
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(len(samples))

	var sq float64
	for _, s := range samples {
		d := float64(s) - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(samples)))
}
