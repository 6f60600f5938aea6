package trainer

import (
	"fmt"
	"path"
	"strconv"
	"time"

	"golang.org/x/exp/rand"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/store"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/util"
)

// pending is one side's unfinished transition. The side's move is only
// finalized when it moves again or the game ends, because its next state
// is the board after the opponent's reply.
type pending struct {
	state  tictactoe.State
	action tictactoe.Position
	reward float64
	valid  bool
}

func trainable(p policies.Policy) (*policies.QLearningPolicy, bool) {
	q, ok := p.(*policies.QLearningPolicy)
	return q, ok && q.Mode() == policies.Train
}

// RunTrainingGame plays one self-play episode and applies the Q-learning
// update for whichever side has a pending transition after every ply.
// Reward accrued on the opponent's plies is added to the pending record,
// and a game ending on the opponent's move finalizes it with no bootstrap
// state. Returns the terminal outcome from the first side's perspective.
func RunTrainingGame(board *tictactoe.Board, p1, p2 policies.Policy) (int, error) {
	state, info := board.Reset()
	p1State, p2State := state, state

	learner1, train1 := trainable(p1)
	learner2, train2 := trainable(p2)

	var pend1, pend2 pending
	var reward tictactoe.RewardPair
	terminated := false

	for !terminated {
		if info.OnMove == tictactoe.First {
			action, err := p1.Decide(p1State)
			if err != nil {
				return 0, fmt.Errorf("player1 decide: %w", err)
			}
			p2State, reward, terminated, info, err = board.Step(tictactoe.First, action)
			if err != nil {
				return 0, fmt.Errorf("player1 move: %w", err)
			}

			// player2's previous move is now finalized
			if train2 && pend2.valid {
				pend2.reward += reward.Second
				var next *tictactoe.State
				if !terminated {
					next = &p2State
				}
				if err := learner2.UpdateQ(pend2.state, pend2.action, pend2.reward, next); err != nil {
					return 0, err
				}
			}
			if train1 {
				pend1 = pending{state: p1State, action: action, reward: reward.First, valid: true}
				if terminated {
					if err := learner1.UpdateQ(pend1.state, pend1.action, pend1.reward, nil); err != nil {
						return 0, err
					}
				}
			}
		} else {
			action, err := p2.Decide(p2State)
			if err != nil {
				return 0, fmt.Errorf("player2 decide: %w", err)
			}
			p1State, reward, terminated, info, err = board.Step(tictactoe.Second, action)
			if err != nil {
				return 0, fmt.Errorf("player2 move: %w", err)
			}

			if train1 && pend1.valid {
				pend1.reward += reward.First
				var next *tictactoe.State
				if !terminated {
					next = &p1State
				}
				if err := learner1.UpdateQ(pend1.state, pend1.action, pend1.reward, next); err != nil {
					return 0, err
				}
			}
			if train2 {
				pend2 = pending{state: p2State, action: action, reward: reward.Second, valid: true}
				if terminated {
					if err := learner2.UpdateQ(pend2.state, pend2.action, pend2.reward, nil); err != nil {
						return 0, err
					}
				}
			}
		}
	}

	return int(reward.First), nil
}

// RunEvalGame plays one game to completion without any table updates and
// returns 1, -1 or 0 from the first side's perspective.
func RunEvalGame(board *tictactoe.Board, p1, p2 policies.Policy) (int, error) {
	state, info := board.Reset()
	var reward tictactoe.RewardPair
	terminated := false

	for !terminated {
		mover, marker := p1, tictactoe.First
		if info.OnMove == tictactoe.Second {
			mover, marker = p2, tictactoe.Second
		}
		action, err := mover.Decide(state)
		if err != nil {
			return 0, fmt.Errorf("%s decide: %w", marker, err)
		}
		state, reward, terminated, info, err = board.Step(marker, action)
		if err != nil {
			return 0, fmt.Errorf("%s move: %w", marker, err)
		}
	}
	return int(reward.First), nil
}

// RateTriple is one evaluation measurement for a seat: the fraction of
// games won, lost and drawn by the learning policy in that seat.
type RateTriple struct {
	Win  float64
	Lose float64
	Draw float64
}

func (r RateTriple) String() string {
	return fmt.Sprintf("win: %4.0f%% lose: %4.0f%% draw: %4.0f%%", r.Win*100, r.Lose*100, r.Draw*100)
}

// Config drives a training run.
type Config struct {
	Games     int // training games to play
	EvalEvery int // evaluate after this many training games
	EvalGames int // games per evaluation batch
	SavePath  string
	Store     store.TableStore
	Seed      uint64
}

// Trainer repeats self-play training games between two independently
// learning policies and periodically measures both against a random
// baseline.
type Trainer struct {
	config Config
	board  *tictactoe.Board
	p1     *policies.QLearningPolicy
	p2     *policies.QLearningPolicy
	rand   *rand.Rand

	// one rate history per seat, one entry per evaluation batch
	History1 []RateTriple
	History2 []RateTriple
}

func NewTrainer(config Config, board *tictactoe.Board, p1, p2 *policies.QLearningPolicy) *Trainer {
	if config.EvalEvery <= 0 {
		config.EvalEvery = 1000
	}
	if config.EvalGames <= 0 {
		config.EvalGames = 100
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Trainer{
		config:   config,
		board:    board,
		p1:       p1,
		p2:       p2,
		rand:     rand.New(rand.NewSource(seed)),
		History1: make([]RateTriple, 0),
		History2: make([]RateTriple, 0),
	}
}

// Run plays the configured number of training games, interleaving
// evaluation batches, and saves both tables at the end.
func (t *Trainer) Run() error {
	gamesPadding := len(strconv.Itoa(t.config.Games))

	baseline1 := policies.NewRandomPolicy(tictactoe.First, t.rand)
	baseline2 := policies.NewRandomPolicy(tictactoe.Second, t.rand)

	for i := 1; i <= t.config.Games; i++ {
		t.p1.SetMode(policies.Train)
		t.p2.SetMode(policies.Train)
		if _, err := RunTrainingGame(t.board, t.p1, t.p2); err != nil {
			return fmt.Errorf("training game %d: %w", i, err)
		}

		fmt.Printf("\rGame %*d/%d, entries p1:%d p2:%d",
			gamesPadding, i, t.config.Games, t.p1.Table().Len(), t.p2.Table().Len())

		if i%t.config.EvalEvery != 0 {
			continue
		}

		t.p1.SetMode(policies.Eval)
		t.p2.SetMode(policies.Eval)

		asFirst, err := t.evalBatch(t.p1, baseline2)
		if err != nil {
			return err
		}
		t.History1 = append(t.History1, asFirst)

		asSecond, err := t.evalBatch(baseline1, t.p2)
		if err != nil {
			return err
		}
		// record player2's outcome from player2's perspective
		t.History2 = append(t.History2, RateTriple{Win: asSecond.Lose, Lose: asSecond.Win, Draw: asSecond.Draw})

		selfPlay, err := RunEvalGame(t.board, t.p1, t.p2)
		if err != nil {
			return err
		}

		fmt.Printf("\ngame %9d:\n", i)
		fmt.Printf("    QLearningPolicy vs RandomPolicy: %s\n", asFirst)
		fmt.Printf("    RandomPolicy vs QLearningPolicy: %s\n", t.History2[len(t.History2)-1])
		fmt.Printf("    Self play: %s\n\n", outcomeName(selfPlay))

		if t.config.SavePath != "" {
			line := fmt.Sprintf("%d, p1(%s), p2(%s)", i, asFirst, t.History2[len(t.History2)-1])
			if err := util.AppendToFile(path.Join(t.config.SavePath, "eval_history.txt"), line); err != nil {
				return fmt.Errorf("recording eval history: %w", err)
			}
		}
	}
	fmt.Println("")

	if t.config.SavePath != "" && len(t.History1) > 0 {
		summary := []string{
			fmt.Sprintf("games: %d", t.config.Games),
			fmt.Sprintf("entries: p1:%d p2:%d", t.p1.Table().Len(), t.p2.Table().Len()),
			fmt.Sprintf("p1(%s)", t.History1[len(t.History1)-1]),
			fmt.Sprintf("p2(%s)", t.History2[len(t.History2)-1]),
		}
		if err := util.WriteToFile(path.Join(t.config.SavePath, "run_summary.txt"), summary...); err != nil {
			return fmt.Errorf("writing run summary: %w", err)
		}
	}

	if t.config.Store != nil {
		if err := t.config.Store.Save(tictactoe.First, t.p1.Table()); err != nil {
			return fmt.Errorf("saving player1 table: %w", err)
		}
		if err := t.config.Store.Save(tictactoe.Second, t.p2.Table()); err != nil {
			return fmt.Errorf("saving player2 table: %w", err)
		}
	}
	return nil
}

// evalBatch plays EvalGames evaluation games and reports the rates from
// the first seat's perspective.
func (t *Trainer) evalBatch(p1, p2 policies.Policy) (RateTriple, error) {
	wins, losses, draws := 0, 0, 0
	for i := 0; i < t.config.EvalGames; i++ {
		outcome, err := RunEvalGame(t.board, p1, p2)
		if err != nil {
			return RateTriple{}, fmt.Errorf("eval game %d: %w", i, err)
		}
		switch outcome {
		case 1:
			wins++
		case -1:
			losses++
		default:
			draws++
		}
	}
	total := float64(t.config.EvalGames)
	return RateTriple{
		Win:  float64(wins) / total,
		Lose: float64(losses) / total,
		Draw: float64(draws) / total,
	}, nil
}

func outcomeName(outcome int) string {
	switch outcome {
	case 1:
		return "p1_win"
	case -1:
		return "p2_win"
	}
	return "draw"
}
