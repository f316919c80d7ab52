package view

import (
	"fmt"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// InviteText is what the invite QR code encodes
func InviteText(gameID int) string {
	return fmt.Sprintf("scopa join %d", gameID)
}

// WriteInviteQR writes a PNG QR code for joining gameID to path
func WriteInviteQR(gameID int, path string) error {
	qrc, err := qrcode.NewWith(InviteText(gameID),
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return fmt.Errorf("failed to create QR code: %w", err)
	}

	w, err := standard.New(path,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}

	if err := qrc.Save(w); err != nil {
		return fmt.Errorf("failed to save QR code: %w", err)
	}
	return nil
}
