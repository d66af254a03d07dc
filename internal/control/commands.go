// ABOUTME: Dispatch of scene commands onto the engine
// ABOUTME: Decodes audio/* payloads and replies with server/error on bad input
package control

import (
	"time"

	"github.com/Resonate-Protocol/casino-audio/pkg/engine"
	"github.com/Resonate-Protocol/casino-audio/pkg/mixer"
	"github.com/Resonate-Protocol/casino-audio/pkg/protocol"
	"github.com/sirupsen/logrus"
)

// handleClientMessage processes one message from a scene
func (s *Server) handleClientMessage(client *Client, data []byte) {
	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		s.sendError(client, protocol.ErrCodeBadPayload, err.Error())
		return
	}

	client.mu.Lock()
	client.commands++
	client.mu.Unlock()

	if err := s.dispatch(client, env); err != nil {
		log.WithFields(logrus.Fields{
			"client": client.Name,
			"type":   env.Type,
			"error":  err,
		}).Debug("Rejected command")
		s.sendError(client, protocol.ErrCodeBadPayload, err.Error())
	}
}

func (s *Server) dispatch(client *Client, env protocol.Envelope) error {
	switch env.Type {
	case protocol.TypePlay:
		var p protocol.Play
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.engine.Play(mixer.SoundID(p.Sound), playOptions(p))

	case protocol.TypePlaySpatial:
		var p protocol.PlaySpatial
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.engine.PlaySpatial(p.Key, mixer.SoundID(p.Sound), p.Position.Audio(), spatialOptions(p))

	case protocol.TypeUpdateSpatial:
		var p protocol.UpdateSpatial
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.engine.UpdateSpatialPosition(p.Key, p.Position.Audio())

	case protocol.TypeStopSpatial:
		var p protocol.StopSpatial
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.engine.StopSpatial(p.Key)

	case protocol.TypeListener:
		var p protocol.Listener
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.engine.UpdateListener(p.Position.Audio(), p.Forward.Audio(), p.Up.Audio())

	case protocol.TypeBusVolume:
		var p protocol.BusVolume
		if err := env.Decode(&p); err != nil {
			return err
		}
		bus, ok := mixer.ParseBus(p.Bus)
		if !ok {
			s.sendError(client, protocol.ErrCodeUnknownBus, "unknown bus: "+p.Bus)
			return nil
		}
		if p.FadeMs > 0 {
			s.engine.FadeBusVolume(bus, p.Volume, time.Duration(p.FadeMs)*time.Millisecond)
		} else {
			s.engine.SetBusVolume(bus, p.Volume)
		}

	case protocol.TypeMute:
		var p protocol.Mute
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.engine.SetMuted(p.Muted)

	case protocol.TypeResume:
		if err := s.engine.Resume(); err != nil {
			s.sendError(client, protocol.ErrCodeResumeFailed, err.Error())
		}

	default:
		s.sendError(client, protocol.ErrCodeUnknownType, "unknown message type: "+env.Type)
	}
	return nil
}

// playOptions starts from the engine defaults and applies the fields the
// scene sent
func playOptions(p protocol.Play) engine.PlayOptions {
	opts := engine.DefaultPlayOptions()
	opts.Loop = p.Loop
	if p.Volume != nil {
		opts.Volume = *p.Volume
	}
	if p.PlaybackRate != nil {
		opts.PlaybackRate = *p.PlaybackRate
	}
	return opts
}

func spatialOptions(p protocol.PlaySpatial) engine.SpatialOptions {
	opts := engine.DefaultSpatialOptions()
	opts.Loop = p.Loop
	if p.Volume != nil {
		opts.Volume = *p.Volume
	}
	if p.RefDistance != nil {
		opts.RefDistance = *p.RefDistance
	}
	if p.MaxDistance != nil {
		opts.MaxDistance = *p.MaxDistance
	}
	if p.RolloffFactor != nil {
		opts.RolloffFactor = *p.RolloffFactor
	}
	return opts
}
