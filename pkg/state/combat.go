package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/text-rpg/pkg/actor"
	"github.com/jwebster45206/text-rpg/pkg/narrative"
)

// AttackResult describes one resolved attack.
type AttackResult struct {
	Enemy       string `json:"enemy"`
	Roll        int    `json:"roll"`
	Hit         bool   `json:"hit"`
	Damage      int    `json:"damage"`
	EnemyHP     int    `json:"enemy_hit_points"`
	Defeated    bool   `json:"defeated"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func (s *Session) attack(ctx context.Context, target string) ([]string, error) {
	var chunks []string
	if !s.inCombat {
		if target == "" {
			return nil, userError(ErrMissingArgument, "Attack what? Use: attack <enemy>")
		}
		tmpl, ok := s.world.EnemyAt(s.player.CurrentLocation, target)
		if !ok {
			return nil, userError(ErrNoEnemy, "There is no %s here to fight.", target)
		}
		enemy, err := actor.NewCombatant(tmpl)
		if err != nil {
			return nil, fmt.Errorf("failed to spawn %s: %w", tmpl.Name, err)
		}
		s.enemy = enemy
		s.inCombat = true
		s.logger.Info("Combat started", "enemy", enemy.Name, "location", s.player.CurrentLocation)
		chunks = append(chunks, fmt.Sprintf("You engage the %s!", enemy.Name))
	}

	res := s.resolveAttack(ctx)
	return append(chunks, res.Description, res.Message), nil
}

// resolveAttack rolls one attack against the current enemy.
func (s *Session) resolveAttack(ctx context.Context) AttackResult {
	c := s.rules.Combat
	str := s.player.Attributes.Strength
	res := AttackResult{
		Enemy: s.enemy.Name,
		Roll:  1 + s.rng.Intn(20),
	}
	difficulty := c.Difficulty
	if c.EnemyArmorClass && s.enemy.AC > 0 {
		difficulty = s.enemy.AC
	}
	res.Hit = res.Roll+str+c.HitBonus >= difficulty
	if res.Hit {
		res.Damage = max(str+c.DamageBonus, 0)
		s.enemy.TakeDamage(res.Damage)
	}
	res.EnemyHP = s.enemy.HitPoints
	res.Defeated = s.enemy.IsDefeated()

	outcome := "miss"
	switch {
	case res.Defeated:
		outcome = "defeated"
	case res.Hit:
		outcome = fmt.Sprintf("hit for %d damage", res.Damage)
	}
	req := s.baseRequest(narrative.KindCombat)
	req.Enemy = res.Enemy
	req.Outcome = outcome
	res.Description, _ = s.narrator.Generate(ctx, req)

	switch {
	case res.Defeated:
		res.Message = fmt.Sprintf("You strike a killing blow! The %s falls.", res.Enemy)
		s.endCombat()
		s.logger.Info("Enemy defeated", "enemy", res.Enemy)
	case res.Hit:
		res.Message = fmt.Sprintf("You hit the %s for %d damage! (%d HP left)", res.Enemy, res.Damage, res.EnemyHP)
	default:
		res.Message = fmt.Sprintf("You miss the %s!", res.Enemy)
	}
	return res
}

func (s *Session) endCombat() {
	s.inCombat = false
	s.enemy = nil
}

func (s *Session) flee() (string, error) {
	if !s.inCombat {
		return "", ErrNotInCombat
	}
	s.logger.Info("Player fled", "enemy", s.enemy.Name)
	s.endCombat()
	return "You flee from combat!", nil
}

// Attack starts a fight with target or continues the current one.
func (s *Session) Attack(ctx context.Context, target string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePlayer(); err != nil {
		return "", err
	}
	chunks, err := s.attack(ctx, strings.TrimSpace(target))
	if err != nil {
		return "", err
	}
	s.clock.Advance(CmdAttack.minutes())
	return strings.Join(chunks, "\n\n"), nil
}

// Flee ends the current fight.
func (s *Session) Flee() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePlayer(); err != nil {
		return "", err
	}
	msg, err := s.flee()
	if err == nil {
		s.clock.Advance(CmdFlee.minutes())
	}
	return msg, err
}

// InCombat reports whether a fight is in progress.
func (s *Session) InCombat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inCombat
}
