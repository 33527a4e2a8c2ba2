package socket

import (
	"fmt"

	"github.com/LassiHeikkila/WioLTE/module"
)

// parseQISTATE parses one line of the AT+QISTATE? listing:
//
//	+QISTATE: <connectID>,<service_type>,<IP_address>,<remote_port>,<local_port>,<socket_state>,...
//
// Only the id is required.
func parseQISTATE(line string) (Info, error) {
	args, ok := module.ReplyArgs(line, "+QISTATE")
	if !ok {
		return Info{}, fmt.Errorf("%q: %w", line, module.ErrUnexpectedReply)
	}
	id, err := module.Atoi(args[0])
	if err != nil {
		return Info{}, fmt.Errorf("bad connection id in %q: %w", line, err)
	}
	if id < 0 || id >= MaxConnections {
		return Info{}, fmt.Errorf("connection id %d out of range", id)
	}
	info := Info{ID: id, State: StateUnknown}
	if len(args) < 6 {
		return info, nil
	}
	info.Service = args[1]
	info.RemoteIP = args[2]
	info.RemotePort, _ = module.Atoi(args[3])
	info.LocalPort, _ = module.Atoi(args[4])
	if s, err := module.Atoi(args[5]); err == nil && s >= 0 && s < int(StateUnknown) {
		info.State = State(s)
	}
	return info, nil
}

// parseQIRD returns the byte count of a "+QIRD: <len>[,<ip>,<port>]" reply.
func parseQIRD(resp string) (int, error) {
	args := module.ParseArgs(resp)
	n, err := module.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("bad length in +QIRD: %s: %w", resp, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative length in +QIRD: %s", resp)
	}
	return n, nil
}
