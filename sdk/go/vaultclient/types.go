package vaultclient

import (
	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/internal/domain/models"
)

// Wire types shared with the server.
type (
	AuthRequest             = dto.AuthRequestResponse
	CreatedAuthRequest      = dto.CreateAuthRequestResponse
	CreateAuthRequestInput  = dto.CreateAuthRequestRequest
	UpdateAuthRequestInput  = dto.UpdateAuthRequestRequest
	CipherInput             = dto.CipherRequest
	Cipher                  = models.Cipher
	CipherLogin             = models.CipherLogin
	LoginURI                = models.LoginURI
	CipherCard              = models.CipherCard
	CipherIdentity          = models.CipherIdentity
	CipherSecureNote        = models.CipherSecureNote
	CipherField             = models.CipherField
	PasswordHistory         = models.PasswordHistory
	Attachment              = models.Attachment
	apiResponse             = dto.APIResponse
	authRequestListResponse = dto.AuthRequestListResponse
	cipherListResponse      = dto.CipherListResponse
)
