package ports

// ChangeNotifier receives a single notification when account state is
// known to have changed upstream, so listeners can refresh once instead of
// once per account.
type ChangeNotifier interface {
	AccountsChanged(reason string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) AccountsChanged(string) {}
