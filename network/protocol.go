package network

// Inbound intent types.
const (
	EvtHeartbeat       = "heartbeat"
	EvtCreateRoom      = "createRoom"
	EvtJoinRoom        = "joinRoom"
	EvtLeaveRoom       = "leaveRoom"
	EvtGetRoomState    = "getRoomState"
	EvtReconnectPlayer = "reconnectPlayer"
	EvtStartGame       = "startGame"
	EvtSubmitWords     = "submitWords"
	EvtCastVote        = "castVote"
	EvtNextRound       = "nextRound"
)

// Outbound notification types.
const (
	EvtError              = "error"
	EvtRoomCreated        = "roomCreated"
	EvtJoinedRoom         = "joinedRoom"
	EvtPlayerJoined       = "playerJoined"
	EvtPlayerLeft         = "playerLeft"
	EvtPlayerDisconnected = "playerDisconnected"
	EvtYouAreCreator      = "youAreCreator"
	EvtRoomState          = "roomState"
	EvtRoundStart         = "roundStart"
	EvtTimerTick          = "timerTick"
	EvtStartReview        = "startReview"
	EvtVoteUpdate         = "voteUpdate"
	EvtReviewEnded        = "reviewEnded"
	EvtRoundEnded         = "roundEnded"
	EvtGameEnded          = "gameEnded"
)
