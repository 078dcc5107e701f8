package soundbox

// Update вызывается хостом раз в кадр из одной горутины. Сначала удаляет
// из реестра остановившиеся каналы, потом опрашивает устройство, чтобы
// между тиками никто не получил устаревший канал.
func (e *Engine) Update() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}

	for id, ch := range e.channels {
		// Канал на паузе не считается завершённым.
		if !ch.playing() {
			ch.stop()
			delete(e.channels, id)
		}
	}

	err := e.dev.Update()
	e.logDeviceErr(err)
	return err
}
