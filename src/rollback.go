package main

import (
	ggpo "github.com/assemblaj/ggpo"
	"github.com/pkg/errors"
)

// RollbackSession owns a ggpo backend driving a Match. ggpo calls back into
// it to save, load and resimulate frames.
type RollbackSession struct {
	backend    ggpo.Backend
	match      *Match
	saveStates map[int]MatchSnapshot
	players    []ggpo.Player
	handles    []ggpo.PlayerHandle
	syncTest   bool
	config     RollbackProperties
	netTime    int
	err        error
}

func NewRollbackSession(m *Match, config RollbackProperties) *RollbackSession {
	return &RollbackSession{
		match:      m,
		config:     config,
		saveStates: make(map[int]MatchSnapshot),
	}
}

func (r *RollbackSession) Close() {
	if r.backend != nil {
		r.backend.Close()
	}
}

func (r *RollbackSession) SaveGameState(stateID int) int {
	r.saveStates[stateID] = r.match.Snapshot()
	return int(r.match.Checksum())
}

func (r *RollbackSession) LoadGameState(stateID int) {
	s, ok := r.saveStates[stateID]
	if !ok {
		logger.Errorw("missing saved state", "id", stateID)
		return
	}
	r.match.Restore(s)
}

// AdvanceFrame resimulates a frame during a rollback.
func (r *RollbackSession) AdvanceFrame(flags int) {
	var disconnectFlags int
	values, err := r.backend.SyncInput(&disconnectFlags)
	if err != nil {
		logger.Warnw("sync input during rollback", "err", err)
		return
	}
	r.match.Step(decodeInputs(values))
	if err := r.backend.AdvanceFrame(r.match.Checksum()); err != nil {
		r.err = errors.Wrap(err, "advance during rollback")
	}
}

func (r *RollbackSession) OnEvent(info *ggpo.Event) {
	switch info.Code {
	case ggpo.EventCodeConnectedToPeer:
		logger.Infow("connected to peer", "player", info.Player)
	case ggpo.EventCodeSynchronizingWithPeer:
		logger.Debugw("synchronizing", "count", info.Count, "total", info.Total)
	case ggpo.EventCodeSynchronizedWithPeer:
		logger.Infow("synchronized with peer", "player", info.Player)
	case ggpo.EventCodeRunning:
		logger.Infow("session running")
	case ggpo.EventCodeDisconnectedFromPeer:
		logger.Warnw("disconnected", "player", info.Player)
		r.err = errors.Errorf("player %d disconnected", info.Player)
	case ggpo.EventCodeConnectionInterrupted:
		logger.Warnw("connection interrupted", "player", info.Player)
	case ggpo.EventCodeConnectionResumed:
		logger.Infow("connection resumed", "player", info.Player)
	}
}

// InitSyncTest runs both players locally, rolling back every frame and
// comparing checksums of the resimulated state.
func (r *RollbackSession) InitSyncTest(numPlayers int) error {
	r.syncTest = true
	if r.config.LogsEnabled {
		ggpo.EnableLogs()
	} else {
		ggpo.DisableLogs()
	}

	var inputBits InputBits
	inputSize := len(encodeInputs(inputBits))

	peer := ggpo.NewSyncTest(r, numPlayers, r.config.DesyncTestFrames, inputSize, true)
	r.backend = &peer
	peer.InitializeConnection()
	peer.Start()

	for i := 0; i < numPlayers; i++ {
		player := ggpo.NewLocalPlayer(20, i+1)
		var handle ggpo.PlayerHandle
		if err := peer.AddPlayer(&player, &handle); err != nil {
			return errors.Wrapf(err, "add player %d", i+1)
		}
		r.players = append(r.players, player)
		r.handles = append(r.handles, handle)
	}
	peer.SetDisconnectTimeout(r.config.DisconnectTimeout)
	peer.SetDisconnectNotifyStart(r.config.DisconnectNotifyStart)
	return nil
}

// RollbackSystem feeds inputs to a session one frame at a time.
type RollbackSystem struct {
	session    *RollbackSession
	ggpoInputs [2]InputBits
}

func newRollbackSystem(m *Match, config RollbackProperties) (*RollbackSystem, error) {
	rs := &RollbackSystem{session: NewRollbackSession(m, config)}
	if err := rs.session.InitSyncTest(2); err != nil {
		return nil, err
	}
	return rs, nil
}

// runFrame adds local inputs, lets the backend confirm them and steps the
// match. ggpo may load and resimulate earlier frames before returning.
func (rs *RollbackSystem) runFrame(inputs [2]InputBits) (FrameResult, error) {
	r := rs.session
	if err := r.backend.Idle(0); err != nil {
		return FrameResult{}, errors.Wrap(err, "idle")
	}
	for i, h := range r.handles {
		buffer := encodeInputs(inputs[i])
		if err := r.backend.AddLocalInput(h, buffer, len(buffer)); err != nil {
			return FrameResult{}, errors.Wrapf(err, "add input for player %d", i+1)
		}
	}

	var disconnectFlags int
	values, err := r.backend.SyncInput(&disconnectFlags)
	if err != nil {
		return FrameResult{}, errors.Wrap(err, "sync input")
	}
	rs.ggpoInputs = decodeInputs(values)
	res := r.match.Step(rs.ggpoInputs)
	r.netTime++

	if err := r.backend.AdvanceFrame(r.match.Checksum()); err != nil {
		if r.config.DesyncTest {
			logger.Errorw("desync", "frame", r.match.Frame(), "checksum", r.match.Checksum())
		}
		return res, errors.Wrapf(err, "advance frame %d", r.match.Frame())
	}
	if r.err != nil {
		return res, r.err
	}
	return res, nil
}

func (rs *RollbackSystem) Close() { rs.session.Close() }

func writeI32(i32 int32) []byte {
	b := []byte{byte(i32), byte(i32 >> 8), byte(i32 >> 16), byte(i32 >> 24)}
	return b
}

func readI32(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
}

func encodeInputs(inputs InputBits) []byte {
	return writeI32(int32(inputs))
}

func decodeInputs(buffer [][]byte) [2]InputBits {
	var inputs [2]InputBits
	for i, b := range buffer {
		if i < len(inputs) {
			inputs[i] = InputBits(readI32(b))
		}
	}
	return inputs
}
