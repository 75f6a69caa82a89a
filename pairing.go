package smartcast

import (
	"context"

	"github.com/google/uuid"
)

// PairingData holds the challenge state of an in-progress pairing
// exchange. It is ephemeral: produced by BeginPair and consumed by
// FinishPair or CancelPair; nothing is persisted on the Device until the
// exchange yields an auth token.
type PairingData struct {
	// Token is the pairing request token issued by the device.
	Token uint32
	// ChallengeType identifies the challenge the device presented.
	ChallengeType uint32
	// ClientID is the id this client introduced itself with.
	ClientID string
}

// BeginPair starts the pairing process. The device enters pairing mode
// and, on a TV, displays a PIN to be submitted via FinishPair. If clientID
// is empty a random one is generated. A device already in pairing mode
// rejects the call with CodeBlocked.
func (d *Device) BeginPair(ctx context.Context, clientName, clientID string) (*PairingData, error) {
	if clientID == "" {
		clientID = uuid.NewString()
	}

	env, err := d.sendCommand(ctx, command{
		kind:       cmdStartPairing,
		clientName: clientName,
		clientID:   clientID,
	})
	if err != nil {
		return nil, err
	}

	token, challenge, err := env.pairingData()
	if err != nil {
		return nil, err
	}
	return &PairingData{Token: token, ChallengeType: challenge, ClientID: clientID}, nil
}

// FinishPair completes the pairing process with the PIN displayed by the
// device. Non-digit characters are stripped from the PIN before
// transmission. On success the auth token is stored on the Device and
// returned; persist it and re-supply it with SetAuthToken on the next
// session.
func (d *Device) FinishPair(ctx context.Context, data *PairingData, pin string) (string, error) {
	if data == nil {
		return "", ErrNoPairingSession
	}
	pin = digitsOnly(pin)
	if pin == "" {
		return "", ErrEmptyPIN
	}

	env, err := d.sendCommand(ctx, command{
		kind:         cmdFinishPairing,
		clientID:     data.ClientID,
		pairingToken: data.Token,
		challenge:    data.ChallengeType,
		pin:          pin,
	})
	if err != nil {
		return "", err
	}

	token, err := env.authToken()
	if err != nil {
		return "", err
	}
	d.setAuthToken(token)
	return token, nil
}

// CancelPair aborts an in-progress pairing exchange and takes the device
// out of pairing mode. After a cancel, a fresh BeginPair succeeds again.
func (d *Device) CancelPair(ctx context.Context, data *PairingData) error {
	if data == nil {
		return ErrNoPairingSession
	}

	_, err := d.sendCommand(ctx, command{
		kind:         cmdCancelPairing,
		clientID:     data.ClientID,
		pairingToken: data.Token,
		challenge:    data.ChallengeType,
	})
	return err
}
