package appliance

import (
	"context"
	"fmt"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

// Logical TV functions, used as keys of the configured mapping.
const (
	FuncActive        = "active"
	FuncRewind        = "rewind"
	FuncFastForward   = "fastForward"
	FuncNextTrack     = "nextTrack"
	FuncPreviousTrack = "previousTrack"
	FuncArrowUp       = "arrowUp"
	FuncArrowDown     = "arrowDown"
	FuncArrowLeft     = "arrowLeft"
	FuncArrowRight    = "arrowRight"
	FuncSelect        = "select"
	FuncBack          = "back"
	FuncExit          = "exit"
	FuncPlayPause     = "playPause"
	FuncInformation   = "information"
	FuncVolumeUp      = "volumeUp"
	FuncVolumeDown    = "volumeDown"
)

// Functions lists every logical TV function.
var Functions = []string{
	FuncActive, FuncRewind, FuncFastForward, FuncNextTrack, FuncPreviousTrack,
	FuncArrowUp, FuncArrowDown, FuncArrowLeft, FuncArrowRight, FuncSelect,
	FuncBack, FuncExit, FuncPlayPause, FuncInformation, FuncVolumeUp, FuncVolumeDown,
}

var remoteKeyFunctions = map[int]string{
	KeyRewind:        FuncRewind,
	KeyFastForward:   FuncFastForward,
	KeyNextTrack:     FuncNextTrack,
	KeyPreviousTrack: FuncPreviousTrack,
	KeyArrowUp:       FuncArrowUp,
	KeyArrowDown:     FuncArrowDown,
	KeyArrowLeft:     FuncArrowLeft,
	KeyArrowRight:    FuncArrowRight,
	KeySelect:        FuncSelect,
	KeyBack:          FuncBack,
	KeyExit:          FuncExit,
	KeyPlayPause:     FuncPlayPause,
	KeyInformation:   FuncInformation,
}

// TV relays television remote events to learned IR signals. It keeps no
// state of its own.
type TV struct {
	shell    *accessory.Shell
	gateway  remo.Gateway
	logger   Logger
	ctx      context.Context
	ir       remo.Appliance
	mapping  map[string]string
	nickname string
}

// TVConfig carries the collaborators of a TV adapter.
type TVConfig struct {
	Gateway remo.Gateway
	// Mapping maps logical functions to learned signal names.
	Mapping map[string]string
	Logger  Logger
	Context context.Context
}

// BindTV fills shell with a television and its speaker for an IR
// appliance.
func BindTV(shell *accessory.Shell, ir remo.Appliance, cfg TVConfig) *TV {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tv := &TV{
		shell:    shell,
		gateway:  cfg.Gateway,
		logger:   orNoop(cfg.Logger),
		ctx:      ctx,
		ir:       ir,
		mapping:  cfg.Mapping,
		nickname: ir.Nickname,
	}

	shell.SetInformation(accessory.Information{
		Manufacturer:     manufacturerNature,
		Model:            ir.Device.Name,
		SerialNumber:     ir.Device.SerialNumber,
		FirmwareRevision: ir.Device.FirmwareVersion,
	})

	television := namedService(shell, accessory.ServiceTelevision, ir.Nickname)
	television.Characteristic(accessory.CharActiveIdentifier).UpdateValue(1)
	television.Characteristic(accessory.CharSleepDiscoveryMode).UpdateValue(AlwaysDiscoverable)
	active := television.Characteristic(accessory.CharActive)
	if active.Value() == nil {
		active.UpdateValue(Inactive)
	}
	active.OnSet(func(any) error {
		return tv.Send(FuncActive)
	})
	television.Characteristic(accessory.CharRemoteKey).OnSet(func(v any) error {
		key, ok := accessory.Int(v)
		if !ok {
			return fmt.Errorf("%w: %v", ErrInvalidValue, v)
		}
		fn, ok := remoteKeyFunctions[key]
		if !ok {
			tv.log("unsupported remote key", "key", key)
			return nil
		}
		return tv.Send(fn)
	})

	speaker := shell.EnsureService(accessory.ServiceTelevisionSpeaker, ir.Nickname+" スピーカー")
	speaker.Characteristic(accessory.CharActive).UpdateValue(Active)
	speaker.Characteristic(accessory.CharVolumeControlType).UpdateValue(VolumeControlAbsolute)
	mute := speaker.Characteristic(accessory.CharMute)
	if mute.Value() == nil {
		mute.UpdateValue(false)
	}
	mute.OnSet(func(v any) error {
		tv.log("mute has no signal", "value", v)
		return nil
	})
	speaker.Characteristic(accessory.CharVolumeSelector).OnSet(func(v any) error {
		selector, ok := accessory.Int(v)
		if !ok {
			return fmt.Errorf("%w: %v", ErrInvalidValue, v)
		}
		if selector == VolumeIncrement {
			return tv.Send(FuncVolumeUp)
		}
		return tv.Send(FuncVolumeDown)
	})

	tv.log("setup tv", "signals", len(ir.Signals), "mapped", len(cfg.Mapping))
	return tv
}

// Close implements platform.Adapter.
func (tv *TV) Close() {}

// Send fires the signal mapped to a logical function. A function with no
// mapping, or a mapping naming an unknown signal, is logged and dropped.
// The error reports a signal the vendor did not accept.
func (tv *TV) Send(function string) error {
	name, ok := tv.mapping[function]
	if !ok || name == "" {
		tv.log("no signal mapped", "function", function)
		return nil
	}
	signal, ok := tv.ir.SignalByName(name)
	if !ok {
		tv.logger.Warn(accessory.Tag(tv.shell.Category, tv.nickname, "mapped signal not learned"),
			"function", function, "signal", name)
		return nil
	}

	ctx, cancel := context.WithTimeout(tv.ctx, writeTimeout)
	defer cancel()
	if !tv.gateway.SendSignal(ctx, signal.ID) {
		return ErrWriteFailed
	}
	tv.log("signal sent", "function", function, "signal", name, "signal_id", signal.ID)
	return nil
}

func (tv *TV) log(msg string, args ...any) {
	tv.logger.Debug(accessory.Tag(tv.shell.Category, tv.nickname, msg), args...)
}
