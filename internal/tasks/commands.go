package tasks

// CommandKind identifies a UI request.
type CommandKind int

const (
	Login CommandKind = iota
	Logout
	Play
	Pause
	Seek
	FetchPlaylists
	FetchPlaylist
	PlayTrack
)

func (k CommandKind) String() string {
	switch k {
	case Login:
		return "login"
	case Logout:
		return "logout"
	case Play:
		return "play"
	case Pause:
		return "pause"
	case Seek:
		return "seek"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchPlaylist:
		return "fetch_playlist"
	case PlayTrack:
		return "play_track"
	default:
		return ""
	}
}

// Command is an inbound request from the UI.
type Command struct {
	Kind       CommandKind
	ID         string // playlist ID for FetchPlaylist, track ID for PlayTrack
	PositionMS int64  // Seek
	Limit      int    // page size for fetches, zero uses the default
	Offset     int
}

func LoginCommand() Command  { return Command{Kind: Login} }
func LogoutCommand() Command { return Command{Kind: Logout} }
func PlayCommand() Command   { return Command{Kind: Play} }
func PauseCommand() Command  { return Command{Kind: Pause} }

func SeekCommand(positionMS int64) Command {
	return Command{Kind: Seek, PositionMS: max(positionMS, 0)}
}

func FetchPlaylistsCommand(limit, offset int) Command {
	return Command{Kind: FetchPlaylists, Limit: limit, Offset: offset}
}

func FetchPlaylistCommand(id string, limit, offset int) Command {
	return Command{Kind: FetchPlaylist, ID: id, Limit: limit, Offset: offset}
}

func PlayTrackCommand(id string) Command {
	return Command{Kind: PlayTrack, ID: id}
}
