package approval

import (
	"time"

	"github.com/turtacn/vaultgate/sdk/go/vaultclient"
)

// TimeLayout renders request creation times, e.g. "3/7/24 09:15 AM".
const TimeLayout = "1/2/06 03:04 PM"

// ToastLoginApproved is shown after a successful approval.
const ToastLoginApproved = "Login approved"

const genericErrorMessage = "An error has occurred."

// State is the approval screen state. It is owned by the ViewModel loop; callers only see copies.
type State struct {
	Fingerprint           string
	Email                 string
	ViewState             ViewState
	ShouldShowErrorDialog bool
}

// ViewState is one of Loading, Content or Error.
type ViewState interface {
	isViewState()
}

// Loading is shown while the request is fetched.
type Loading struct{}

// Content holds the displayable request details.
type Content struct {
	DeviceType  string
	Domain      string
	Email       string
	Fingerprint string
	IPAddress   string
	Time        string
}

// Error blocks the screen after a failed fetch.
type Error struct {
	Message string
}

func (Loading) isViewState() {}
func (Content) isViewState() {}
func (Error) isViewState()   {}

// Action is a user intent or an internal result fed to the ViewModel loop.
type Action interface {
	isAction()
}

type (
	ApproveRequestClick struct{}
	DeclineRequestClick struct{}
	CloseClick          struct{}
	ErrorDialogDismiss  struct{}
)

type fetchResult struct {
	request *vaultclient.AuthRequest
	err     error
}

type decisionResult struct {
	approved bool
	err      error
}

func (ApproveRequestClick) isAction() {}
func (DeclineRequestClick) isAction() {}
func (CloseClick) isAction()          {}
func (ErrorDialogDismiss) isAction()  {}
func (fetchResult) isAction()         {}
func (decisionResult) isAction()      {}

// Event is a one-shot notification for the screen host.
type Event interface {
	isEvent()
}

// NavigateBack asks the host to leave the screen.
type NavigateBack struct{}

// ShowToast asks the host to show a transient message.
type ShowToast struct {
	Message string
}

func (NavigateBack) isEvent() {}
func (ShowToast) isEvent()    {}

func contentFrom(req *vaultclient.AuthRequest, fallbackEmail string, loc *time.Location) Content {
	email := req.Email
	if email == "" {
		email = fallbackEmail
	}
	return Content{
		DeviceType:  req.Platform,
		Domain:      req.OriginURL,
		Email:       email,
		Fingerprint: req.Fingerprint,
		IPAddress:   req.IPAddress,
		Time:        req.CreationDate.In(loc).Format(TimeLayout),
	}
}
