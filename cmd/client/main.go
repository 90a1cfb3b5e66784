// Command client joins a room on a running server and negotiates with every
// other participant, printing what it sees. Useful for poking at a deployment.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/adapters/rtc"
	"github.com/sastranest/nest/internal/client"
	"github.com/sastranest/nest/internal/protocol"
)

func main() {
	url := flag.String("url", "ws://localhost:8082/ws", "signaling endpoint")
	room := flag.String("room", "General", "room to join")
	password := flag.String("password", "", "room password")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := client.New(*url, rtc.PortFactory(rtc.DefaultWebRTCConfig()))
	if err := c.Connect(); err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			c.LeaveRoom()
			return
		case ev, ok := <-c.Events():
			if !ok {
				log.Info().Msg("connection closed")
				return
			}
			switch ev.Type {
			case protocol.TypeHello:
				log.Info().Str("id", c.ID()).Str("handle", c.Handle()).Msg("connected")
				c.JoinRoom(*room, *password)
			case protocol.TypeRoomJoined:
				log.Info().Str("room", *room).Int("participants", len(c.Room().ActiveParticipants)).Msg("joined")
			case protocol.TypeParticipantJoined:
				m := ev.Payload.(protocol.ParticipantJoined)
				log.Info().Str("handle", m.Participant.Handle).Msg("participant joined")
			case protocol.TypeParticipantLeft:
				m := ev.Payload.(protocol.ParticipantLeft)
				log.Info().Str("id", m.ClientID).Msg("participant left")
			case protocol.TypeReaction:
				m := ev.Payload.(protocol.ReactionEvent)
				log.Info().Str("emoji", m.Emoji).Str("from", m.ClientID).Msg("reaction")
			case protocol.TypeRoomDeleted:
				log.Info().Msg("room deleted, exiting")
				return
			case protocol.TypeError:
				m := ev.Payload.(protocol.ErrorMessage)
				log.Error().Str("message", m.Message).Msg("server error")
			}
		}
	}
}
