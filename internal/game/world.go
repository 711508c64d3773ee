package game

import (
	"github.com/mlange-42/ark/ecs"
)

// AttackCooldown is how many ticks must pass after a fist fires before
// the owning player can charge another attack.
const AttackCooldown = 30

// MaxChargeTicks caps how long holding the attack key keeps adding
// distance; charging longer than this has no further effect.
const MaxChargeTicks = 60

// MinFistDistance is the distance a quick-tap (zero charge) fist travels.
const MinFistDistance = 20.0

// fistSpeed is how far a fist travels per tick.
const fistSpeed = 5.0

// Fist is a thrown punch entity travelling away from its owner.
type Fist struct {
	OwnerID     int
	MaxDistance float64
	Traveled    float64
	FacingRight bool
}

// World holds all game state: an ark ECS world plus the per-player held
// intent, advanced one deterministic tick at a time by Update.
type World struct {
	Tick uint64

	ecs ecs.World

	positions  ecs.Map[Position]
	velocities ecs.Map[Velocity]
	colliders  ecs.Map[Collider]
	sprites    ecs.Map[Sprite]
	players    ecs.Map[Player]
	healths    ecs.Map[Health]
	gravities  ecs.Map[Gravity]
	grounded   ecs.Map[Grounded]
	attacks    ecs.Map[AttackState]
	fists      ecs.Map[Fist]

	physicsFilter *ecs.Filter4[Position, Velocity, Collider, Grounded]
	playerFilter  *ecs.Filter2[Position, Player]
	attackFilter  *ecs.Filter6[Position, Velocity, Player, AttackState, Collider, Grounded]
	fistFilter    *ecs.Filter3[Position, Velocity, Fist]
	spriteFilter  *ecs.Filter2[Position, Sprite]

	intents map[int]Intent
}

// Renderable is a read-only projection of an entity's position and sprite,
// for renderers that have no business touching the ECS directly.
type Renderable struct {
	X, Y     float64
	SpriteID string
	Color    uint32
}

// NewWorld creates a new game world.
func NewWorld() *World {
	w := &World{
		ecs:     ecs.NewWorld(),
		intents: make(map[int]Intent),
	}

	w.positions = ecs.NewMap[Position](&w.ecs)
	w.velocities = ecs.NewMap[Velocity](&w.ecs)
	w.colliders = ecs.NewMap[Collider](&w.ecs)
	w.sprites = ecs.NewMap[Sprite](&w.ecs)
	w.players = ecs.NewMap[Player](&w.ecs)
	w.healths = ecs.NewMap[Health](&w.ecs)
	w.gravities = ecs.NewMap[Gravity](&w.ecs)
	w.grounded = ecs.NewMap[Grounded](&w.ecs)
	w.attacks = ecs.NewMap[AttackState](&w.ecs)
	w.fists = ecs.NewMap[Fist](&w.ecs)

	w.physicsFilter = ecs.NewFilter4[Position, Velocity, Collider, Grounded](&w.ecs)
	w.playerFilter = ecs.NewFilter2[Position, Player](&w.ecs)
	w.attackFilter = ecs.NewFilter6[Position, Velocity, Player, AttackState, Collider, Grounded](&w.ecs)
	w.fistFilter = ecs.NewFilter3[Position, Velocity, Fist](&w.ecs)
	w.spriteFilter = ecs.NewFilter2[Position, Sprite](&w.ecs)

	return w
}

// GetRenderables returns a snapshot of every sprite-bearing entity's
// position, for renderers to draw without touching the ECS.
func (w *World) GetRenderables() []Renderable {
	var out []Renderable
	query := w.spriteFilter.Query()
	for query.Next() {
		pos, sprite := query.Get()
		out = append(out, Renderable{X: pos.X, Y: pos.Y, SpriteID: sprite.ID, Color: sprite.Color})
	}
	query.Close()
	return out
}

// SetPlayerIntent records the intent held by playerID for the next Update.
// It persists until changed again, matching a held key rather than a
// one-shot press.
func (w *World) SetPlayerIntent(playerID int, intent Intent) {
	w.intents[playerID] = intent
}

// SpawnPlayer creates a player entity with the standard physics and
// attack components.
func (w *World) SpawnPlayer(id int, name string, x, y float64) ecs.Entity {
	entity := w.ecs.NewEntity()
	w.positions.Add(entity, &Position{X: x, Y: y})
	w.velocities.Add(entity, &Velocity{})
	w.colliders.Add(entity, &Collider{Width: 1, Height: 2})
	w.sprites.Add(entity, &Sprite{ID: "player", Color: 0x00AEEF})
	w.players.Add(entity, &Player{ID: id, Name: name})
	w.healths.Add(entity, &Health{Current: 100, Max: 100})
	w.gravities.Add(entity, &Gravity{Scale: 1})
	w.grounded.Add(entity, &Grounded{})
	w.attacks.Add(entity, &AttackState{})
	return entity
}

// SpawnEnemy creates an enemy entity based on type.
func (w *World) SpawnEnemy(enemyType string, x, y float64) ecs.Entity {
	entity := w.ecs.NewEntity()
	w.positions.Add(entity, &Position{X: x, Y: y})
	w.velocities.Add(entity, &Velocity{})
	w.colliders.Add(entity, &Collider{Width: 1, Height: 1})
	w.sprites.Add(entity, &Sprite{ID: enemyType, Color: 0xFF4444})
	w.healths.Add(entity, &Health{Current: 20, Max: 20})
	w.gravities.Add(entity, &Gravity{Scale: 1})
	w.grounded.Add(entity, &Grounded{})
	return entity
}

// Update advances the world by one deterministic tick.
func (w *World) Update() {
	w.Tick++
	w.runMovementIntents()
	w.runPhysics()
	w.runAttacks()
	w.runFists()
}

// runMovementIntents translates each player's held intent into velocity.
func (w *World) runMovementIntents() {
	const moveSpeed = 4.0
	const jumpSpeed = -10.0

	query := w.playerFilter.Query()
	for query.Next() {
		pos, player := query.Get()
		_ = pos
		intent := w.intents[player.ID]

		entity := query.Entity()
		if !w.velocities.Has(entity) {
			continue
		}
		vel := w.velocities.Get(entity)
		vel.X = 0
		if intent&IntentLeft != 0 {
			vel.X -= moveSpeed
		}
		if intent&IntentRight != 0 {
			vel.X += moveSpeed
		}
		if w.grounded.Has(entity) {
			ground := w.grounded.Get(entity)
			if ground.OnGround && intent&IntentJump != 0 {
				vel.Y = jumpSpeed
			}
		}
	}
	query.Close()
}

// runPhysics integrates velocity and gravity into position.
func (w *World) runPhysics() {
	const gravityAccel = 0.6
	const groundY = 18.0

	query := w.physicsFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, _, ground := query.Get()

		if w.gravities.Has(entity) {
			vel.Y += gravityAccel * w.gravities.Get(entity).Scale
		}

		pos.X += vel.X
		pos.Y += vel.Y

		if pos.Y >= groundY {
			pos.Y = groundY
			vel.Y = 0
			ground.OnGround = true
		} else {
			ground.OnGround = false
		}
	}
	query.Close()
}

// runAttacks implements the charge-release punch: holding the attack
// intent charges a fist, releasing it fires. Firing starts a cooldown
// during which the intent is ignored entirely.
func (w *World) runAttacks() {
	query := w.attackFilter.Query()
	var spawnPos []Position
	var spawnFists []Fist
	for query.Next() {
		pos, vel, player, attack, _, _ := query.Get()
		intent := w.intents[player.ID]

		if attack.Attacking {
			attack.TicksLeft--
			if attack.TicksLeft <= 0 {
				attack.Attacking = false
			}
			continue
		}

		if intent&IntentAttack != 0 {
			if !attack.Charging {
				attack.Charging = true
				attack.ChargeTicks = 0
				attack.FacingRight = vel.X >= 0
			} else {
				attack.ChargeTicks++
			}
			continue
		}

		if attack.Charging {
			charge := attack.ChargeTicks
			if charge > MaxChargeTicks {
				charge = MaxChargeTicks
			}
			distance := MinFistDistance + float64(charge)

			// Spawned after the query closes: the world is locked while
			// a query is iterating.
			spawnPos = append(spawnPos, Position{X: pos.X, Y: pos.Y})
			spawnFists = append(spawnFists, Fist{OwnerID: player.ID, MaxDistance: distance, FacingRight: attack.FacingRight})

			attack.Charging = false
			attack.Attacking = true
			attack.TicksLeft = AttackCooldown
		}
	}
	query.Close()

	for i := range spawnFists {
		facingX := 1.0
		if !spawnFists[i].FacingRight {
			facingX = -1.0
		}
		fist := w.ecs.NewEntity()
		w.positions.Add(fist, &spawnPos[i])
		w.velocities.Add(fist, &Velocity{X: facingX * fistSpeed})
		w.fists.Add(fist, &spawnFists[i])
		w.sprites.Add(fist, &Sprite{ID: "fist", Color: 0xFFFFFF})
	}
}

// runFists advances thrown fists and despawns them once they've travelled
// their full MaxDistance.
func (w *World) runFists() {
	query := w.fistFilter.Query()
	var spent []ecs.Entity
	for query.Next() {
		entity := query.Entity()
		pos, vel, fist := query.Get()
		pos.X += vel.X
		fist.Traveled += fistSpeed
		if fist.Traveled >= fist.MaxDistance {
			spent = append(spent, entity)
		}
	}
	query.Close()

	for _, e := range spent {
		w.ecs.RemoveEntity(e)
	}
}
